package domain

import "time"

// StageState is the requester-side promotion state machine.
type StageState string

const (
	StageNone      StageState = "none"
	StageRequested StageState = "requested"
	StageAccepted  StageState = "accepted"
	StageDeclined  StageState = "declined"
)

// StageRequest is one pending promotion request in the host's queue.
type StageRequest struct {
	User   UserID    `json:"user"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar,omitempty"`
	At     time.Time `json:"at"`
}
