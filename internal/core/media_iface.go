package core

import (
	"context"

	"github.com/pkudinov/liveclass/internal/domain"
)

// Credential is the opaque room token handed out by the directory
// service and consumed by the media engine.
type Credential string

// MediaDefaults are the initial self track states requested at init.
type MediaDefaults struct {
	AudioOn bool
	VideoOn bool
}

// RemotePeer is the engine's view of one connected participant.
type RemotePeer struct {
	Peer          domain.PeerID
	User          domain.UserID
	Name          string
	Avatar        string
	AudioOn       bool
	VideoOn       bool
	ScreenShareOn bool
}

// MediaEvents receives the engine's own event stream. Calls may arrive
// from the engine's goroutines; implementations must hand them off to
// their own loop rather than touch state directly.
type MediaEvents interface {
	OnParticipantJoined(RemotePeer)
	OnParticipantLeft(peer domain.PeerID)
	OnAudioUpdate(peer domain.PeerID, on bool)
	OnVideoUpdate(peer domain.PeerID, on bool)
	OnScreenShareUpdate(peer domain.PeerID, on bool)
}

// MediaEngine is the control surface of the external WebRTC client.
// Every call is fallible and attempted exactly once; the engine's event
// stream, not a call's return, is the authority for resulting state.
type MediaEngine interface {
	Init(ctx context.Context, cred Credential, defaults MediaDefaults) error
	JoinRoom(ctx context.Context) (domain.PeerID, error)
	LeaveRoom(ctx context.Context) error

	EnableAudio(ctx context.Context) error
	DisableAudio(ctx context.Context) error
	EnableVideo(ctx context.Context) error
	DisableVideo(ctx context.Context) error
	EnableScreenShare(ctx context.Context) error
	DisableScreenShare(ctx context.Context) error

	// Subscribe registers the single callback sink. Must be called
	// before JoinRoom.
	Subscribe(MediaEvents)
}
