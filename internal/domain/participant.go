package domain

import (
	"errors"
	"time"
)

const (
	MaxUserIDLen      = 36
	MaxDisplayNameLen = 48
)

var (
	ErrNameEmpty   = errors.New("display name empty")
	ErrNameTooLong = errors.New("display name too long")
)

type (
	// UserID is the stable account identity.
	UserID string
	// PeerID is the transport-level connection id assigned by the
	// media engine. A user may reconnect under a new PeerID.
	PeerID string
)

type Role string

const (
	RoleHost        Role = "host"
	RoleParticipant Role = "participant"
	RoleGuest       Role = "guest"
)

// OnStage reports whether the role may publish audio/video/screen.
func (r Role) OnStage() bool { return r == RoleHost || r == RoleParticipant }

type Admission string

const (
	AdmissionPending  Admission = "pending"
	AdmissionAdmitted Admission = "admitted"
	AdmissionDeclined Admission = "declined"
)

// AdmissionTicket is one pending waiting-room entry in the host's
// queue. Duplicate join requests for the same user collapse to one.
type AdmissionTicket struct {
	User   UserID    `json:"user"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar,omitempty"`
	At     time.Time `json:"at"`
}

// Participant is one roster entry. Presence and track flags come from
// the media engine keyed by PeerID; role and admission come from the
// domain event stream keyed by UserID.
type Participant struct {
	Peer      PeerID    `json:"peer_id"`
	User      UserID    `json:"user_id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar,omitempty"`
	Role      Role      `json:"role"`
	Admission Admission `json:"admission"`

	AudioOn       bool `json:"audio_on"`
	VideoOn       bool `json:"video_on"`
	ScreenShareOn bool `json:"screen_share_on"`
	HandRaised    bool `json:"hand_raised"`
	Speaking      bool `json:"speaking"`
}

// ValidateDisplayName checks the name a user identifies with. Roster
// entries are exempt: a provisional entry created from a role or
// admission event carries no name until a presence source fills it.
func ValidateDisplayName(name string) error {
	if len(name) == 0 {
		return ErrNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return ErrNameTooLong
	}
	return nil
}
