// Package core holds the coordinator-facing contracts: the inbound
// event union, the media engine control surface, and the directory
// service client interface. It has no business logic.
package core

import "github.com/pkudinov/liveclass/internal/domain"

// Event is the sealed union of meeting-domain events pushed by the
// server. Anything outside this union never reaches the stores.
type Event interface{ isEvent() }

// JoinRequest means a user asks to enter a meeting that requires approval.
type JoinRequest struct {
	User   domain.UserID
	Name   string
	Avatar string
}

// Admitted means the host approved the local user's join request. The
// credential is what the media engine must be initialized with.
type Admitted struct {
	User       domain.UserID
	Credential Credential
}

// Declined means the host rejected the local user's join request.
type Declined struct {
	User   domain.UserID
	Reason string
}

// Ended means the meeting was ended by its host.
type Ended struct {
	Meeting domain.MeetingID
}

// Kicked means a participant was removed by the host.
type Kicked struct {
	User domain.UserID
}

type HandRaised struct {
	User domain.UserID
}

type HandLowered struct {
	User domain.UserID
}

type Reaction struct {
	User  domain.UserID
	Emoji string
}

type Chat struct {
	Message domain.ChatMessage
}

// PollCreated carries a full poll definition (tag "poll"). For the
// creator it is the confirmation of an optimistic local insert.
type PollCreated struct {
	Poll domain.Poll
}

// PollVote is an additive tally delta, never an absolute count.
type PollVote struct {
	Poll   string
	User   domain.UserID
	Option int
}

// MuteParticipant means the host forces a participant's mic off.
type MuteParticipant struct {
	User domain.UserID
}

// ScreenSharePermission means the host grants or revokes screen-share rights.
type ScreenSharePermission struct {
	User    domain.UserID
	Allowed bool
}

// StageRequested means a guest asks to be promoted on stage.
type StageRequested struct {
	User   domain.UserID
	Name   string
	Avatar string
}

type StageDeclined struct {
	User domain.UserID
}

type StageAccepted struct {
	User domain.UserID
}

// RoleChanged is the authoritative role truth, keyed by user id.
type RoleChanged struct {
	User domain.UserID
	Role domain.Role
}

// ParticipantJoined is the domain-level join notice. The media engine
// reports presence separately, keyed by peer id; the two must commute.
type ParticipantJoined struct {
	User   domain.UserID
	Name   string
	Avatar string
}

type Speaking struct {
	User domain.UserID
	On   bool
}

func (JoinRequest) isEvent()           {}
func (Admitted) isEvent()              {}
func (Declined) isEvent()              {}
func (Ended) isEvent()                 {}
func (Kicked) isEvent()                {}
func (HandRaised) isEvent()            {}
func (HandLowered) isEvent()           {}
func (Reaction) isEvent()              {}
func (Chat) isEvent()                  {}
func (PollCreated) isEvent()           {}
func (PollVote) isEvent()              {}
func (MuteParticipant) isEvent()       {}
func (ScreenSharePermission) isEvent() {}
func (StageRequested) isEvent()        {}
func (StageDeclined) isEvent()         {}
func (StageAccepted) isEvent()         {}
func (RoleChanged) isEvent()           {}
func (ParticipantJoined) isEvent()     {}
func (Speaking) isEvent()              {}
