// Package session implements the live meeting coordinator: one Session
// per browser tab, holding the local authoritative view of an
// in-progress meeting and reconciling it against the server event
// stream and the media engine's callbacks.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
	"github.com/pkudinov/liveclass/internal/tabs"
)

var (
	ErrSessionActive   = errors.New("a meeting session is already active")
	ErrNotJoined       = errors.New("no active meeting")
	ErrNotWaiting      = errors.New("no pending join request")
	ErrMeetingOccupied = errors.New("meeting already open in another tab")
	ErrJoinFailed      = errors.New("joining the meeting failed")
	ErrNotHost         = errors.New("host role required")
	ErrOffStage        = errors.New("guests cannot publish media")
	ErrNotGuest        = errors.New("only guests request the stage")
	ErrShareDisabled   = errors.New("screen share disabled for this meeting")
	ErrPollUnknown     = errors.New("unknown poll")
)

// Config carries the session-level knobs; zero values fall back to the
// defaults below.
type Config struct {
	ReactionTTL    time.Duration
	RosterDebounce time.Duration
	RequestTimeout time.Duration
	MediaDefaults  core.MediaDefaults
}

func (c Config) withDefaults() Config {
	if c.ReactionTTL <= 0 {
		c.ReactionTTL = 3 * time.Second
	}
	if c.RosterDebounce <= 0 {
		c.RosterDebounce = 400 * time.Millisecond
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 10 * time.Second
	}
	return c
}

// StreamDialer opens the server event feed for one meeting. Frames are
// delivered to sink in arrival order. No reconnect is attempted.
type StreamDialer interface {
	Dial(ctx context.Context, meeting domain.MeetingID, user domain.UserID, sink func([]byte)) (io.Closer, error)
}

// Deps are the external collaborators a Session drives.
type Deps struct {
	Engine    core.MediaEngine
	Directory core.Directory
	Tabs      *tabs.Coordinator
	Streams   StreamDialer
}

// Session is the per-tab lifecycle controller. All state below the
// dependency fields is owned by the loop goroutine and touched only
// through posted closures, which keeps every store single-threaded.
type Session struct {
	tab  string
	user domain.UserID
	name string
	cfg  Config

	engine  core.MediaEngine
	dir     core.Directory
	tabs    *tabs.Coordinator
	streams StreamDialer

	inbox  chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	status   domain.Status
	meeting  *domain.Meeting
	cred     core.Credential
	selfPeer domain.PeerID
	selfRole domain.Role
	torn     bool

	roster    *rosterStore
	admission *admissionStore
	stage     *stageStore
	chat      *chatStore
	polls     *pollStore
	reactions *reactionStore
	share     *shareArbiter

	reactionTimers map[domain.UserID]*time.Timer
	refresh        *time.Timer
	stream         io.Closer
}

func New(parent context.Context, tab string, user domain.UserID, name string, cfg Config, deps Deps) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		tab:            tab,
		user:           user,
		name:           name,
		cfg:            cfg.withDefaults(),
		engine:         deps.Engine,
		dir:            deps.Directory,
		tabs:           deps.Tabs,
		streams:        deps.Streams,
		inbox:          make(chan func(), 64),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		status:         domain.StatusLobby,
		roster:         newRosterStore(),
		admission:      newAdmissionStore(),
		stage:          newStageStore(),
		chat:           newChatStore(user),
		polls:          newPollStore(),
		reactions:      newReactionStore(),
		share:          newShareArbiter(),
		reactionTimers: make(map[domain.UserID]*time.Timer),
	}
	if s.engine != nil {
		s.engine.Subscribe(s)
	}
	go s.loop()
	return s
}

func (s *Session) User() domain.UserID { return s.user }
func (s *Session) Tab() string         { return s.tab }

func (s *Session) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case fn := <-s.inbox:
			fn()
		}
	}
}

func (s *Session) post(fn func()) {
	select {
	case s.inbox <- fn:
	case <-s.ctx.Done():
	}
}

// call runs fn on the loop and waits for it, acting as a memory barrier
// for callers that need a consistent read or an error back.
func (s *Session) call(fn func()) {
	ran := make(chan struct{})
	s.post(func() {
		fn()
		close(ran)
	})
	select {
	case <-ran:
	case <-s.ctx.Done():
	}
}

// callErr defaults to ErrNotJoined: when the session is closed the
// closure never runs and the caller still gets a meaningful refusal.
func (s *Session) callErr(fn func() error) error {
	err := ErrNotJoined
	s.call(func() { err = fn() })
	return err
}

// Create starts a new meeting with the local user as host.
func (s *Session) Create(ctx context.Context, title string, settings domain.Settings) error {
	if err := domain.ValidateTitle(title); err != nil {
		return err
	}
	if err := s.begin(); err != nil {
		return err
	}
	res, err := s.dir.CreateMeeting(ctx, title, s.user, s.name, settings)
	if err != nil {
		s.abort()
		return fmt.Errorf("create meeting: %w", err)
	}
	s.openStream(ctx, res.Meeting.ID)
	return s.connect(ctx, res.Meeting, res.Credential)
}

// Join enters an existing meeting by id (or the id part of an invite
// link). When the meeting requires approval the call returns with the
// session in waiting-approval; the admitted event completes the join.
func (s *Session) Join(ctx context.Context, id domain.MeetingID) error {
	return s.enter(ctx, id, false)
}

// Rejoin re-enters a meeting the user already belongs to, skipping the
// approval queue.
func (s *Session) Rejoin(ctx context.Context, id domain.MeetingID) error {
	return s.enter(ctx, id, true)
}

func (s *Session) enter(ctx context.Context, id domain.MeetingID, rejoin bool) error {
	if err := domain.ValidateMeetingID(id); err != nil {
		return err
	}
	if s.tabs != nil && s.tabs.Probe(ctx, id, s.user) {
		return ErrMeetingOccupied
	}
	if err := s.begin(); err != nil {
		return err
	}
	var res core.JoinResult
	var err error
	if rejoin {
		res, err = s.dir.RejoinMeeting(ctx, id, s.user)
	} else {
		res, err = s.dir.JoinMeeting(ctx, id, s.user, s.name)
	}
	if err != nil {
		s.abort()
		return fmt.Errorf("join meeting: %w", err)
	}
	// Fresh joins respect the cap locally; a rejoining user is already
	// counted by the directory.
	if !rejoin && res.Meeting.Full() {
		s.abort()
		return fmt.Errorf("join meeting: %w", core.ErrMeetingFull)
	}
	if res.Pending {
		// The admission machine must be armed before the stream can
		// deliver a frame: an admitted event racing the dial would
		// otherwise find the phase idle and be discarded for good.
		m := res.Meeting
		s.call(func() {
			s.meeting = &m
			s.status = domain.StatusWaitingApproval
			s.admission.beginRequest()
		})
		s.openStream(ctx, res.Meeting.ID)
		return nil
	}
	s.openStream(ctx, res.Meeting.ID)
	return s.connect(ctx, res.Meeting, res.Credential)
}

// connect drives the media engine into the room and flips the session
// to joined. Credential or room failures abort back to the lobby; this
// is the only fatal path in the subsystem.
func (s *Session) connect(ctx context.Context, m domain.Meeting, cred core.Credential) error {
	if cred == "" {
		s.abort()
		return fmt.Errorf("%w: no room credential", ErrJoinFailed)
	}
	if err := s.engine.Init(ctx, cred, s.cfg.MediaDefaults); err != nil {
		s.abort()
		return fmt.Errorf("%w: media init: %v", ErrJoinFailed, err)
	}
	peer, err := s.engine.JoinRoom(ctx)
	if err != nil {
		s.abort()
		return fmt.Errorf("%w: media room: %v", ErrJoinFailed, err)
	}
	s.call(func() {
		mc := m
		s.meeting = &mc
		s.cred = cred
		s.selfPeer = peer
		s.selfRole = domain.RoleParticipant
		if m.HostID == s.user {
			s.selfRole = domain.RoleHost
		}
		s.roster.applyMediaJoined(core.RemotePeer{
			Peer:    peer,
			User:    s.user,
			Name:    s.name,
			AudioOn: s.cfg.MediaDefaults.AudioOn,
			VideoOn: s.cfg.MediaDefaults.VideoOn,
		})
		s.roster.applyRole(s.user, s.selfRole)
		s.status = domain.StatusJoined
	})
	if s.tabs != nil {
		s.tabs.Joined(m.ID, s.user)
	}
	log.Info().Str("module", "session").Str("tab", s.tab).Str("meeting", string(m.ID)).Msg("joined meeting")
	return nil
}

// CancelJoin abandons a pending approval wait. A late admitted event
// finds the admission machine idle and is discarded.
func (s *Session) CancelJoin() error {
	return s.callErr(func() error {
		if s.status != domain.StatusWaitingApproval {
			return ErrNotWaiting
		}
		s.admission.cancel()
		s.closeStreamLocked()
		s.meeting = nil
		s.status = domain.StatusLobby
		return nil
	})
}

// Leave tears local state down first and only afterwards notifies the
// directory, fire-and-forget.
func (s *Session) Leave(ctx context.Context) error {
	var id domain.MeetingID
	err := s.callErr(func() error {
		if s.meeting == nil {
			return ErrNotJoined
		}
		id = s.meeting.ID
		s.teardown(domain.StatusLobby)
		return nil
	})
	if err != nil {
		return err
	}
	go s.notify("leave", func(ctx context.Context) error { return s.dir.Leave(ctx, id, s.user) })
	return nil
}

// End is the host-side meeting stop; same local-first ordering as
// Leave.
func (s *Session) End(ctx context.Context) error {
	var id domain.MeetingID
	err := s.callErr(func() error {
		if s.meeting == nil {
			return ErrNotJoined
		}
		if s.selfRole != domain.RoleHost {
			return ErrNotHost
		}
		id = s.meeting.ID
		s.teardown(domain.StatusLobby)
		return nil
	})
	if err != nil {
		return err
	}
	go s.notify("end", func(ctx context.Context) error { return s.dir.End(ctx, id) })
	return nil
}

// begin gates entry into a new meeting and re-arms the one-shot
// teardown guard.
func (s *Session) begin() error {
	return s.callErr(func() error {
		if s.status != domain.StatusLobby && s.status != domain.StatusEnded {
			return ErrSessionActive
		}
		s.torn = false
		s.status = domain.StatusSetup
		return nil
	})
}

func (s *Session) abort() {
	s.call(func() { s.teardown(domain.StatusLobby) })
}

// teardown is the single cleanup path, shared by leave, end, kicked and
// ended. The torn flag makes it one-shot: overlapping ended/kicked
// events run it exactly once. All sub-stores reset as one batch; no
// timer survives past this point.
func (s *Session) teardown(next domain.Status) {
	if s.torn {
		return
	}
	s.torn = true

	for user, t := range s.reactionTimers {
		t.Stop()
		delete(s.reactionTimers, user)
	}
	if s.refresh != nil {
		s.refresh.Stop()
		s.refresh = nil
	}
	s.closeStreamLocked()

	s.roster.reset()
	s.admission.reset()
	s.stage.reset()
	s.chat.reset()
	s.polls.reset()
	s.reactions.reset()
	s.share.reset()

	if s.selfPeer != "" {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
		if err := s.engine.LeaveRoom(ctx); err != nil {
			log.Warn().Err(err).Str("module", "session").Str("tab", s.tab).Msg("media leave failed")
		}
		cancel()
	}
	if s.tabs != nil {
		s.tabs.Left()
	}

	s.meeting = nil
	s.cred = ""
	s.selfPeer = ""
	s.selfRole = ""
	s.status = next
	log.Info().Str("module", "session").Str("tab", s.tab).Str("status", string(next)).Msg("session torn down")
}

// notify fires one remote call with no retry and no rollback; the
// optimistic local state stands whatever happens.
func (s *Session) notify(what string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Warn().Err(err).Str("module", "session").Str("tab", s.tab).Str("call", what).Msg("directory notification failed")
	}
}

func (s *Session) openStream(ctx context.Context, id domain.MeetingID) {
	if s.streams == nil {
		return
	}
	closer, err := s.streams.Dial(ctx, id, s.user, s.HandleFrame)
	if err != nil {
		log.Warn().Err(err).Str("module", "session").Str("meeting", string(id)).Msg("event stream unavailable")
		return
	}
	s.call(func() {
		s.closeStreamLocked()
		s.stream = closer
	})
}

func (s *Session) closeStreamLocked() {
	if s.stream != nil {
		_ = s.stream.Close()
		s.stream = nil
	}
}

// HandleFrame ingests one raw frame from the event feed. Unknown or
// malformed frames are dropped without raising.
func (s *Session) HandleFrame(data []byte) {
	ev, err := DecodeEvent(data)
	if err != nil {
		if !errors.Is(err, ErrUnknownEvent) {
			log.Debug().Err(err).Str("module", "session").Msg("dropped malformed event")
		}
		return
	}
	s.post(func() { s.handleEvent(ev) })
}

// Snapshot returns a consistent read-only copy of every store.
func (s *Session) Snapshot() core.Snapshot {
	var snap core.Snapshot
	s.call(func() { snap = s.buildSnapshot() })
	return snap
}

func (s *Session) buildSnapshot() core.Snapshot {
	snap := core.Snapshot{
		Status:            s.status,
		SelfUser:          s.user,
		SelfName:          s.name,
		SelfPeer:          s.selfPeer,
		SelfRole:          s.selfRole,
		Participants:      s.roster.snapshot(),
		PendingAdmissions: s.admission.tickets(),
		StageSelf:         s.stage.self,
		StageRequests:     s.stage.requests(),
		Chat:              s.chat.snapshot(),
		ChatUnread:        s.chat.unread,
		Polls:             s.polls.snapshot(),
		Reactions:         s.reactions.snapshot(),
		Presenter:         s.share.current(),
	}
	if s.meeting != nil {
		m := *s.meeting
		snap.Meeting = &m
	}
	for _, p := range snap.Participants {
		if p.HandRaised {
			snap.Hands = append(snap.Hands, p.User)
		}
	}
	if s.tabs != nil {
		if _, ok := s.tabs.ConflictMeeting(); ok {
			snap.TabConflict = true
		}
	}
	return snap
}

// Close stops the loop and releases the tab's bus subscription. Any
// live meeting is torn down first.
func (s *Session) Close() {
	s.call(func() { s.teardown(domain.StatusEnded) })
	s.cancel()
	<-s.done
	if s.tabs != nil {
		s.tabs.Close()
	}
}
