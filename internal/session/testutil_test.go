package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
)

// fakeEngine records every control call in order and lets tests drive
// the callback sink directly.
type fakeEngine struct {
	mu       sync.Mutex
	sink     core.MediaEvents
	peer     domain.PeerID
	calls    []string
	initCred core.Credential
	failInit bool
	failJoin bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{peer: "peer-self"}
}

func (f *fakeEngine) record(what string) {
	f.mu.Lock()
	f.calls = append(f.calls, what)
	f.mu.Unlock()
}

func (f *fakeEngine) Init(_ context.Context, cred core.Credential, _ core.MediaDefaults) error {
	f.record("init")
	f.mu.Lock()
	f.initCred = cred
	fail := f.failInit
	f.mu.Unlock()
	if fail {
		return errors.New("init refused")
	}
	return nil
}

func (f *fakeEngine) JoinRoom(context.Context) (domain.PeerID, error) {
	f.record("join")
	f.mu.Lock()
	fail := f.failJoin
	peer := f.peer
	f.mu.Unlock()
	if fail {
		return "", errors.New("room refused")
	}
	return peer, nil
}

func (f *fakeEngine) LeaveRoom(context.Context) error           { f.record("leave"); return nil }
func (f *fakeEngine) EnableAudio(context.Context) error         { f.record("enable-audio"); return nil }
func (f *fakeEngine) DisableAudio(context.Context) error        { f.record("disable-audio"); return nil }
func (f *fakeEngine) EnableVideo(context.Context) error         { f.record("enable-video"); return nil }
func (f *fakeEngine) DisableVideo(context.Context) error        { f.record("disable-video"); return nil }
func (f *fakeEngine) EnableScreenShare(context.Context) error   { f.record("enable-share"); return nil }
func (f *fakeEngine) DisableScreenShare(context.Context) error  { f.record("disable-share"); return nil }

func (f *fakeEngine) Subscribe(sink core.MediaEvents) {
	f.mu.Lock()
	f.sink = sink
	f.mu.Unlock()
}

func (f *fakeEngine) events() core.MediaEvents {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sink
}

func (f *fakeEngine) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEngine) count(what string) int {
	n := 0
	for _, c := range f.callList() {
		if c == what {
			n++
		}
	}
	return n
}

func (f *fakeEngine) credential() core.Credential {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initCred
}

// fakeDirectory answers with scripted results and records call names.
// Gates, when set, block the matching call until released so tests can
// observe the state in between.
type fakeDirectory struct {
	mu    sync.Mutex
	calls []string

	createResult core.CreateResult
	createErr    error
	joinResult   core.JoinResult
	joinErr      error
	rejoinResult core.JoinResult
	rejoinErr    error
	fetchResult  domain.Meeting
	fetchErr     error
	chatResult   domain.ChatMessage
	chatErr      error
	chatGate     chan struct{}
	leaveGate    chan struct{}
	history      []core.HistoryEntry
}

func newFakeDirectory() *fakeDirectory { return &fakeDirectory{} }

func (f *fakeDirectory) record(what string) {
	f.mu.Lock()
	f.calls = append(f.calls, what)
	f.mu.Unlock()
}

func (f *fakeDirectory) count(what string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == what {
			n++
		}
	}
	return n
}

func (f *fakeDirectory) CreateMeeting(_ context.Context, _ string, _ domain.UserID, _ string, _ domain.Settings) (core.CreateResult, error) {
	f.record("create")
	return f.createResult, f.createErr
}

func (f *fakeDirectory) JoinMeeting(_ context.Context, _ domain.MeetingID, _ domain.UserID, _ string) (core.JoinResult, error) {
	f.record("join")
	return f.joinResult, f.joinErr
}

func (f *fakeDirectory) RejoinMeeting(_ context.Context, _ domain.MeetingID, _ domain.UserID) (core.JoinResult, error) {
	f.record("rejoin")
	return f.rejoinResult, f.rejoinErr
}

func (f *fakeDirectory) FetchMeeting(_ context.Context, _ domain.MeetingID) (domain.Meeting, error) {
	f.record("fetch")
	return f.fetchResult, f.fetchErr
}

func (f *fakeDirectory) Admit(_ context.Context, _ domain.MeetingID, _ domain.UserID) error {
	f.record("admit")
	return nil
}

func (f *fakeDirectory) DeclineJoin(_ context.Context, _ domain.MeetingID, _ domain.UserID) error {
	f.record("decline")
	return nil
}

func (f *fakeDirectory) Mute(_ context.Context, _ domain.MeetingID, _ domain.UserID) error {
	f.record("mute")
	return nil
}

func (f *fakeDirectory) Kick(_ context.Context, _ domain.MeetingID, _ domain.UserID) error {
	f.record("kick")
	return nil
}

func (f *fakeDirectory) SendChat(_ context.Context, _ domain.MeetingID, msg domain.ChatMessage) (domain.ChatMessage, error) {
	f.record("chat")
	f.mu.Lock()
	gate := f.chatGate
	res, err := f.chatResult, f.chatErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if res.ID == "" && err == nil {
		res = msg
		res.ID = "srv-" + msg.ID
	}
	return res, err
}

func (f *fakeDirectory) CreatePoll(_ context.Context, _ domain.MeetingID, _ domain.Poll) error {
	f.record("create-poll")
	return nil
}

func (f *fakeDirectory) Vote(_ context.Context, _ domain.MeetingID, _ string, _ domain.UserID, _ int) error {
	f.record("vote")
	return nil
}

func (f *fakeDirectory) SendReaction(_ context.Context, _ domain.MeetingID, _ domain.UserID, _ string) error {
	f.record("reaction")
	return nil
}

func (f *fakeDirectory) SetHand(_ context.Context, _ domain.MeetingID, _ domain.UserID, _ bool) error {
	f.record("hand")
	return nil
}

func (f *fakeDirectory) RequestStage(_ context.Context, _ domain.MeetingID, _ domain.UserID) error {
	f.record("stage-request")
	return nil
}

func (f *fakeDirectory) ResolveStage(_ context.Context, _ domain.MeetingID, _ domain.UserID, _ bool) error {
	f.record("stage-resolve")
	return nil
}

func (f *fakeDirectory) SetRole(_ context.Context, _ domain.MeetingID, _ domain.UserID, _ domain.Role) error {
	f.record("set-role")
	return nil
}

func (f *fakeDirectory) Leave(_ context.Context, _ domain.MeetingID, _ domain.UserID) error {
	f.record("leave")
	f.mu.Lock()
	gate := f.leaveGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return nil
}

func (f *fakeDirectory) End(_ context.Context, _ domain.MeetingID) error {
	f.record("end")
	return nil
}

func (f *fakeDirectory) History(_ context.Context, _ domain.UserID) ([]core.HistoryEntry, error) {
	f.record("history")
	return f.history, nil
}

func (f *fakeDirectory) DeleteHistoryEntry(_ context.Context, _ domain.UserID, _ string) error {
	f.record("delete-history")
	return nil
}

// fakeStream delivers its scripted frames synchronously inside Dial,
// the tightest ordering a real feed can produce.
type fakeStream struct {
	mu     sync.Mutex
	frames [][]byte
	dials  int
	closes int
}

type fakeStreamConn struct{ s *fakeStream }

func (c fakeStreamConn) Close() error {
	c.s.mu.Lock()
	c.s.closes++
	c.s.mu.Unlock()
	return nil
}

func (f *fakeStream) Dial(_ context.Context, _ domain.MeetingID, _ domain.UserID, sink func([]byte)) (io.Closer, error) {
	f.mu.Lock()
	f.dials++
	frames := append([][]byte(nil), f.frames...)
	f.mu.Unlock()
	for _, fr := range frames {
		sink(fr)
	}
	return fakeStreamConn{s: f}, nil
}

func testConfig() Config {
	return Config{
		ReactionTTL:    50 * time.Millisecond,
		RosterDebounce: 20 * time.Millisecond,
		RequestTimeout: time.Second,
	}
}

func testMeeting(host domain.UserID) domain.Meeting {
	return domain.Meeting{
		ID:        "meet-1",
		Title:     "Algebra II review",
		HostID:    host,
		Settings:  domain.Settings{RequireApproval: true, AllowScreenShare: true},
		StartedAt: time.Now(),
	}
}

func newTestSession(t *testing.T, user domain.UserID, cfg Config, eng *fakeEngine, dir *fakeDirectory) *Session {
	t.Helper()
	s := New(context.Background(), "tab-"+string(user), user, "User "+string(user), cfg, Deps{
		Engine:    eng,
		Directory: dir,
	})
	t.Cleanup(s.Close)
	return s
}

// hostSession creates and joins a meeting with the local user as host.
func hostSession(t *testing.T) (*Session, *fakeEngine, *fakeDirectory) {
	t.Helper()
	eng := newFakeEngine()
	dir := newFakeDirectory()
	dir.createResult = core.CreateResult{Meeting: testMeeting("host-1"), Credential: "cred-host"}
	s := newTestSession(t, "host-1", testConfig(), eng, dir)
	m := dir.createResult.Meeting
	if err := s.Create(context.Background(), m.Title, m.Settings); err != nil {
		t.Fatalf("create meeting: %v", err)
	}
	return s, eng, dir
}

// memberSession joins an existing meeting hosted by someone else.
func memberSession(t *testing.T, user domain.UserID, cfg Config) (*Session, *fakeEngine, *fakeDirectory) {
	t.Helper()
	eng := newFakeEngine()
	dir := newFakeDirectory()
	dir.joinResult = core.JoinResult{Meeting: testMeeting("host-1"), Credential: "cred-" + core.Credential(user)}
	s := newTestSession(t, user, cfg, eng, dir)
	if err := s.Join(context.Background(), "meet-1"); err != nil {
		t.Fatalf("join meeting: %v", err)
	}
	return s, eng, dir
}

// deliver pushes one event through the dispatcher on the loop goroutine
// and waits for it, so stores are settled when it returns. Handlers
// that spawn goroutines still need waitFor.
func deliver(s *Session, ev core.Event) {
	s.call(func() { s.handleEvent(ev) })
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
