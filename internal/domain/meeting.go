// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"time"
)

const (
	MaxMeetingIDLen = 36
	MaxTitleLen     = 120
)

var (
	ErrTitleEmpty    = errors.New("meeting title empty")
	ErrTitleTooLong  = errors.New("meeting title too long")
	ErrMeetingIDSize = errors.New("meeting id has wrong size")
)

type MeetingID string

// Status is the local lifecycle phase of the current session.
type Status string

const (
	StatusLobby           Status = "lobby"
	StatusSetup           Status = "setup"
	StatusWaitingApproval Status = "waiting-approval"
	StatusJoined          Status = "joined"
	StatusEnded           Status = "ended"
)

// Settings are host-chosen meeting options, fixed at creation.
type Settings struct {
	RequireApproval  bool `json:"require_approval"`
	AllowScreenShare bool `json:"allow_screen_share"`
	MaxParticipants  int  `json:"max_participants"`
}

type Meeting struct {
	ID        MeetingID `json:"id"`
	Title     string    `json:"title"`
	HostID    UserID    `json:"host_id"`
	Settings  Settings  `json:"settings"`
	StartedAt time.Time `json:"started_at"`

	// ParticipantCount is the directory's live count at fetch time.
	ParticipantCount int `json:"participant_count,omitempty"`
}

// Full reports whether the directory-side count has reached the cap.
// Zero MaxParticipants means unlimited.
func (m Meeting) Full() bool {
	return m.Settings.MaxParticipants > 0 && m.ParticipantCount >= m.Settings.MaxParticipants
}

// Meetings are constructed by the directory service; the gateway only
// validates what the user typed before it goes over the wire.

func ValidateTitle(title string) error {
	if len(title) == 0 {
		return ErrTitleEmpty
	}
	if len(title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	return nil
}

func ValidateMeetingID(id MeetingID) error {
	if len(id) == 0 || len(id) > MaxMeetingIDLen {
		return ErrMeetingIDSize
	}
	return nil
}
