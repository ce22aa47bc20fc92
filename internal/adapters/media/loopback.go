// Package media provides a loopback stand-in for the external media
// engine. Control calls succeed locally and the resulting track
// transitions are echoed back asynchronously on the engine's event
// channel, preserving the contract that state only ever converges via
// callbacks. The real SFU client plugs in behind core.MediaEngine.
package media

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
)

var (
	ErrNotInitialized = errors.New("media engine not initialized")
	ErrNotInRoom      = errors.New("media engine not in a room")
)

type Loopback struct {
	mu     sync.Mutex
	sink   core.MediaEvents
	cred   core.Credential
	peer   domain.PeerID
	inRoom bool

	audioOn, videoOn, shareOn bool
	defaults                  core.MediaDefaults
}

func NewLoopback() *Loopback { return &Loopback{} }

func (l *Loopback) Subscribe(sink core.MediaEvents) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = sink
}

func (l *Loopback) Init(ctx context.Context, cred core.Credential, defaults core.MediaDefaults) error {
	if cred == "" {
		return errors.New("empty credential")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cred = cred
	l.defaults = defaults
	return nil
}

func (l *Loopback) JoinRoom(ctx context.Context) (domain.PeerID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cred == "" {
		return "", ErrNotInitialized
	}
	l.peer = domain.PeerID(uuid.NewString())
	l.inRoom = true
	l.audioOn = l.defaults.AudioOn
	l.videoOn = l.defaults.VideoOn
	l.shareOn = false
	log.Debug().Str("module", "media").Str("peer", string(l.peer)).Msg("loopback room joined")
	return l.peer, nil
}

func (l *Loopback) LeaveRoom(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inRoom = false
	l.cred = ""
	l.peer = ""
	return nil
}

func (l *Loopback) EnableAudio(ctx context.Context) error  { return l.setTrack(trackAudio, true) }
func (l *Loopback) DisableAudio(ctx context.Context) error { return l.setTrack(trackAudio, false) }
func (l *Loopback) EnableVideo(ctx context.Context) error  { return l.setTrack(trackVideo, true) }
func (l *Loopback) DisableVideo(ctx context.Context) error { return l.setTrack(trackVideo, false) }
func (l *Loopback) EnableScreenShare(ctx context.Context) error {
	return l.setTrack(trackShare, true)
}
func (l *Loopback) DisableScreenShare(ctx context.Context) error {
	return l.setTrack(trackShare, false)
}

type track int

const (
	trackAudio track = iota
	trackVideo
	trackShare
)

func (l *Loopback) setTrack(t track, on bool) error {
	l.mu.Lock()
	if !l.inRoom {
		l.mu.Unlock()
		return ErrNotInRoom
	}
	switch t {
	case trackAudio:
		l.audioOn = on
	case trackVideo:
		l.videoOn = on
	case trackShare:
		l.shareOn = on
	}
	sink, peer := l.sink, l.peer
	l.mu.Unlock()

	if sink == nil {
		return nil
	}
	// Echo the transition asynchronously, the way a real engine
	// reports it from its own event loop.
	go func() {
		switch t {
		case trackAudio:
			sink.OnAudioUpdate(peer, on)
		case trackVideo:
			sink.OnVideoUpdate(peer, on)
		case trackShare:
			sink.OnScreenShareUpdate(peer, on)
		}
	}()
	return nil
}
