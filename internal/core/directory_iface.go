package core

import (
	"context"
	"errors"
	"time"

	"github.com/pkudinov/liveclass/internal/domain"
)

var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrMeetingFull     = errors.New("meeting is full")
	ErrDirectory       = errors.New("directory request failed")
)

// CreateResult is returned when a meeting is created; the creator is
// its host and joins without approval.
type CreateResult struct {
	Meeting    domain.Meeting
	Credential Credential
}

// JoinResult is returned by join/rejoin. Pending means the meeting
// requires approval and no credential is present yet; the credential
// will arrive on the event stream with the Admitted event.
type JoinResult struct {
	Meeting    domain.Meeting
	Credential Credential
	Pending    bool
}

// HistoryEntry is one past meeting in the user's history list.
type HistoryEntry struct {
	ID        string           `json:"id"`
	Meeting   domain.MeetingID `json:"meeting_id"`
	Title     string           `json:"title"`
	Role      domain.Role      `json:"role"`
	StartedAt time.Time        `json:"started_at"`
	EndedAt   time.Time        `json:"ended_at"`
}

// Directory is the meeting directory service client. Every call is a
// single attempt with no retry: the event stream is the source of truth
// for eventual convergence, so a failed notification is logged and the
// optimistic local state stands.
type Directory interface {
	CreateMeeting(ctx context.Context, title string, host domain.UserID, hostName string, settings domain.Settings) (CreateResult, error)
	JoinMeeting(ctx context.Context, id domain.MeetingID, user domain.UserID, name string) (JoinResult, error)
	RejoinMeeting(ctx context.Context, id domain.MeetingID, user domain.UserID) (JoinResult, error)
	FetchMeeting(ctx context.Context, id domain.MeetingID) (domain.Meeting, error)

	Admit(ctx context.Context, id domain.MeetingID, user domain.UserID) error
	DeclineJoin(ctx context.Context, id domain.MeetingID, user domain.UserID) error
	Mute(ctx context.Context, id domain.MeetingID, user domain.UserID) error
	Kick(ctx context.Context, id domain.MeetingID, user domain.UserID) error

	SendChat(ctx context.Context, id domain.MeetingID, msg domain.ChatMessage) (domain.ChatMessage, error)
	CreatePoll(ctx context.Context, id domain.MeetingID, poll domain.Poll) error
	Vote(ctx context.Context, id domain.MeetingID, poll string, user domain.UserID, option int) error
	SendReaction(ctx context.Context, id domain.MeetingID, user domain.UserID, emoji string) error
	SetHand(ctx context.Context, id domain.MeetingID, user domain.UserID, raised bool) error

	RequestStage(ctx context.Context, id domain.MeetingID, user domain.UserID) error
	ResolveStage(ctx context.Context, id domain.MeetingID, user domain.UserID, accept bool) error
	SetRole(ctx context.Context, id domain.MeetingID, user domain.UserID, role domain.Role) error

	Leave(ctx context.Context, id domain.MeetingID, user domain.UserID) error
	End(ctx context.Context, id domain.MeetingID) error

	History(ctx context.Context, user domain.UserID) ([]HistoryEntry, error)
	DeleteHistoryEntry(ctx context.Context, user domain.UserID, entryID string) error
}
