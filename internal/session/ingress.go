package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
)

var (
	// ErrUnknownEvent marks frames outside the meeting domain; callers
	// drop them silently.
	ErrUnknownEvent = errors.New("unknown event type")
	ErrBadPayload   = errors.New("bad event payload")
)

// envelope is the flat wire form of every server-pushed event:
// {"type": "...", ...}. Fields irrelevant to a given type are ignored.
type envelope struct {
	Type       string           `json:"type"`
	Meeting    domain.MeetingID `json:"meeting_id,omitempty"`
	User       domain.UserID    `json:"user_id,omitempty"`
	Name       string           `json:"name,omitempty"`
	Avatar     string           `json:"avatar,omitempty"`
	Credential string           `json:"credential,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	Emoji      string           `json:"emoji,omitempty"`
	Role       domain.Role      `json:"role,omitempty"`
	Allowed    bool             `json:"allowed,omitempty"`
	On         bool             `json:"on,omitempty"`
	PollID     string           `json:"poll_id,omitempty"`
	Option     int              `json:"option,omitempty"`

	Message *domain.ChatMessage `json:"message,omitempty"`
	Poll    *domain.Poll        `json:"poll,omitempty"`
}

// DecodeEvent turns one raw frame into a typed event. No buffering, no
// reordering: the caller processes events in delivery order.
func DecodeEvent(data []byte) (core.Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	switch env.Type {
	case "join-request":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.JoinRequest{User: env.User, Name: env.Name, Avatar: env.Avatar}, nil
	case "admitted":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.Admitted{User: env.User, Credential: core.Credential(env.Credential)}, nil
	case "declined":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.Declined{User: env.User, Reason: env.Reason}, nil
	case "ended":
		return core.Ended{Meeting: env.Meeting}, nil
	case "kicked":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.Kicked{User: env.User}, nil
	case "hand-raised":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.HandRaised{User: env.User}, nil
	case "hand-lowered":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.HandLowered{User: env.User}, nil
	case "reaction":
		if env.User == "" || env.Emoji == "" {
			return nil, ErrBadPayload
		}
		return core.Reaction{User: env.User, Emoji: env.Emoji}, nil
	case "chat":
		if env.Message == nil || env.Message.ID == "" {
			return nil, ErrBadPayload
		}
		return core.Chat{Message: *env.Message}, nil
	case "poll":
		if env.Poll == nil || env.Poll.ID == "" || len(env.Poll.Options) == 0 {
			return nil, ErrBadPayload
		}
		return core.PollCreated{Poll: *env.Poll}, nil
	case "poll-vote":
		if env.PollID == "" || env.User == "" {
			return nil, ErrBadPayload
		}
		return core.PollVote{Poll: env.PollID, User: env.User, Option: env.Option}, nil
	case "mute-participant":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.MuteParticipant{User: env.User}, nil
	case "screen-share-permission":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.ScreenSharePermission{User: env.User, Allowed: env.Allowed}, nil
	case "stage-request":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.StageRequested{User: env.User, Name: env.Name, Avatar: env.Avatar}, nil
	case "stage-request-declined":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.StageDeclined{User: env.User}, nil
	case "stage-request-accepted":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.StageAccepted{User: env.User}, nil
	case "role-changed":
		if env.User == "" || env.Role == "" {
			return nil, ErrBadPayload
		}
		return core.RoleChanged{User: env.User, Role: env.Role}, nil
	case "participant-joined":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.ParticipantJoined{User: env.User, Name: env.Name, Avatar: env.Avatar}, nil
	case "speaking":
		if env.User == "" {
			return nil, ErrBadPayload
		}
		return core.Speaking{User: env.User, On: env.On}, nil
	default:
		return nil, ErrUnknownEvent
	}
}
