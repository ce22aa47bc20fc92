package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
)

// Self media toggles. Local flags are never set optimistically here:
// the resulting state transition comes back through the engine's own
// event channel, which is the only writer of track state.

func (s *Session) SetAudio(ctx context.Context, on bool) error {
	if err := s.guardPublish(on); err != nil {
		return err
	}
	call := s.engine.DisableAudio
	if on {
		call = s.engine.EnableAudio
	}
	if err := call(ctx); err != nil {
		return fmt.Errorf("media audio: %w", err)
	}
	return nil
}

func (s *Session) SetVideo(ctx context.Context, on bool) error {
	if err := s.guardPublish(on); err != nil {
		return err
	}
	call := s.engine.DisableVideo
	if on {
		call = s.engine.EnableVideo
	}
	if err := call(ctx); err != nil {
		return fmt.Errorf("media video: %w", err)
	}
	return nil
}

func (s *Session) SetScreenShare(ctx context.Context, on bool) error {
	err := s.callErr(func() error {
		if s.status != domain.StatusJoined {
			return ErrNotJoined
		}
		if on && !s.selfRole.OnStage() {
			return ErrOffStage
		}
		if on && s.meeting != nil && !s.meeting.Settings.AllowScreenShare {
			return ErrShareDisabled
		}
		return nil
	})
	if err != nil {
		return err
	}
	call := s.engine.DisableScreenShare
	if on {
		call = s.engine.EnableScreenShare
	}
	if err := call(ctx); err != nil {
		return fmt.Errorf("media screen-share: %w", err)
	}
	return nil
}

func (s *Session) guardPublish(on bool) error {
	return s.callErr(func() error {
		if s.status != domain.StatusJoined {
			return ErrNotJoined
		}
		if on && !s.selfRole.OnStage() {
			return ErrOffStage
		}
		return nil
	})
}

// SendChat appends a pending placeholder immediately and reconciles it
// with the directory's confirmation; a failed send is marked error and
// never retried.
func (s *Session) SendChat(body string) error {
	localID := "local-" + uuid.NewString()
	var (
		id  domain.MeetingID
		msg domain.ChatMessage
	)
	err := s.callErr(func() error {
		if s.status != domain.StatusJoined || s.meeting == nil {
			return ErrNotJoined
		}
		m, err := domain.NewChatMessage(localID, s.user, s.name, body)
		if err != nil {
			return err
		}
		id = s.meeting.ID
		msg = *m
		s.chat.appendLocal(msg)
		return nil
	})
	if err != nil {
		return err
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
		defer cancel()
		auth, err := s.dir.SendChat(ctx, id, msg)
		s.post(func() {
			if err != nil {
				log.Warn().Err(err).Str("module", "session").Str("tab", s.tab).Msg("chat send failed")
				s.chat.fail(localID)
				return
			}
			s.chat.confirm(localID, auth)
		})
	}()
	return nil
}

// SetChatViewActive flips the unread gate; activating resets the count.
func (s *Session) SetChatViewActive(active bool) {
	s.call(func() { s.chat.setViewActive(active) })
}

// CreatePoll inserts optimistically under a local id; the broadcast of
// the same id is the confirmation.
func (s *Session) CreatePoll(question string, options []string) (string, error) {
	pollID := fmt.Sprintf("poll-%d-%s", time.Now().UnixMilli(), s.user)
	var id domain.MeetingID
	err := s.callErr(func() error {
		if s.status != domain.StatusJoined || s.meeting == nil {
			return ErrNotJoined
		}
		p, err := domain.NewPoll(pollID, s.user, question, options)
		if err != nil {
			return err
		}
		id = s.meeting.ID
		s.polls.createLocal(p)
		return nil
	})
	if err != nil {
		return "", err
	}
	var poll domain.Poll
	s.call(func() {
		if p, ok := s.polls.get(pollID); ok {
			poll = *p.Clone()
		}
	})
	go s.notify("create-poll", func(ctx context.Context) error { return s.dir.CreatePoll(ctx, id, poll) })
	return pollID, nil
}

// Vote counts the local user's vote at most once; the echoed vote event
// is suppressed by the voter set.
func (s *Session) Vote(pollID string, option int) error {
	var id domain.MeetingID
	err := s.callErr(func() error {
		if s.status != domain.StatusJoined || s.meeting == nil {
			return ErrNotJoined
		}
		p, ok := s.polls.get(pollID)
		if !ok {
			return ErrPollUnknown
		}
		if p.HasVoted(s.user) {
			return nil
		}
		if _, err := p.CountVote(s.user, option); err != nil {
			return err
		}
		id = s.meeting.ID
		return nil
	})
	if err != nil || id == "" {
		return err
	}
	go s.notify("vote", func(ctx context.Context) error { return s.dir.Vote(ctx, id, pollID, s.user, option) })
	return nil
}

// React sets the local user's mark and restarts its expiry window.
func (s *Session) React(emoji string) error {
	var id domain.MeetingID
	err := s.callErr(func() error {
		if s.status != domain.StatusJoined || s.meeting == nil {
			return ErrNotJoined
		}
		id = s.meeting.ID
		s.applyReaction(s.user, emoji)
		return nil
	})
	if err != nil {
		return err
	}
	go s.notify("reaction", func(ctx context.Context) error { return s.dir.SendReaction(ctx, id, s.user, emoji) })
	return nil
}

// SetHand raises or lowers the local user's hand; no auto-expiry.
func (s *Session) SetHand(raised bool) error {
	var id domain.MeetingID
	err := s.callErr(func() error {
		if s.status != domain.StatusJoined || s.meeting == nil {
			return ErrNotJoined
		}
		id = s.meeting.ID
		s.roster.setHand(s.user, raised)
		return nil
	})
	if err != nil {
		return err
	}
	go s.notify("hand", func(ctx context.Context) error { return s.dir.SetHand(ctx, id, s.user, raised) })
	return nil
}

// Admit removes the ticket locally right away and notifies the
// directory fire-and-forget; there is no rollback path. A full room
// refuses the admit and keeps the ticket.
func (s *Session) Admit(user domain.UserID) error {
	var id domain.MeetingID
	err := s.callErr(func() error {
		if s.status != domain.StatusJoined || s.meeting == nil {
			return ErrNotJoined
		}
		if !s.isHost() {
			return ErrNotHost
		}
		if max := s.meeting.Settings.MaxParticipants; max > 0 && s.roster.count() >= max {
			return core.ErrMeetingFull
		}
		id = s.meeting.ID
		s.admission.remove(user)
		return nil
	})
	if err != nil {
		return err
	}
	go s.notify("admit", func(ctx context.Context) error { return s.dir.Admit(ctx, id, user) })
	return nil
}

func (s *Session) DeclineJoin(user domain.UserID) error {
	return s.hostAction("decline", user, func(ctx context.Context, id domain.MeetingID) error {
		return s.dir.DeclineJoin(ctx, id, user)
	}, func() {
		s.admission.remove(user)
	})
}

// RequestStage marks the local guest's promotion request optimistically.
func (s *Session) RequestStage() error {
	var id domain.MeetingID
	err := s.callErr(func() error {
		if s.status != domain.StatusJoined || s.meeting == nil {
			return ErrNotJoined
		}
		if s.selfRole != domain.RoleGuest {
			return ErrNotGuest
		}
		id = s.meeting.ID
		s.stage.requestSelf()
		return nil
	})
	if err != nil {
		return err
	}
	go s.notify("stage-request", func(ctx context.Context) error { return s.dir.RequestStage(ctx, id, s.user) })
	return nil
}

func (s *Session) ResolveStage(user domain.UserID, accept bool) error {
	return s.hostAction("stage-resolve", user, func(ctx context.Context, id domain.MeetingID) error {
		return s.dir.ResolveStage(ctx, id, user, accept)
	}, func() {
		s.stage.remove(user)
	})
}

// InviteStage promotes a guest to participant; the role truth arrives
// back on the event stream.
func (s *Session) InviteStage(user domain.UserID) error {
	return s.hostAction("stage-invite", user, func(ctx context.Context, id domain.MeetingID) error {
		return s.dir.SetRole(ctx, id, user, domain.RoleParticipant)
	}, nil)
}

func (s *Session) RemoveStage(user domain.UserID) error {
	return s.hostAction("stage-remove", user, func(ctx context.Context, id domain.MeetingID) error {
		return s.dir.SetRole(ctx, id, user, domain.RoleGuest)
	}, nil)
}

func (s *Session) Mute(user domain.UserID) error {
	return s.hostAction("mute", user, func(ctx context.Context, id domain.MeetingID) error {
		return s.dir.Mute(ctx, id, user)
	}, func() {
		s.roster.setAudio(user, false)
	})
}

func (s *Session) Kick(user domain.UserID) error {
	return s.hostAction("kick", user, func(ctx context.Context, id domain.MeetingID) error {
		return s.dir.Kick(ctx, id, user)
	}, func() {
		s.roster.removeUser(user)
		s.admission.remove(user)
		s.stage.remove(user)
		s.reactions.clear(user)
	})
}

// hostAction applies an optimistic local mutation under the host guard
// and fires the matching directory call exactly once.
func (s *Session) hostAction(what string, user domain.UserID, remote func(context.Context, domain.MeetingID) error, local func()) error {
	var id domain.MeetingID
	err := s.callErr(func() error {
		if s.status != domain.StatusJoined || s.meeting == nil {
			return ErrNotJoined
		}
		if !s.isHost() {
			return ErrNotHost
		}
		id = s.meeting.ID
		if local != nil {
			local()
		}
		return nil
	})
	if err != nil {
		return err
	}
	go s.notify(what, func(ctx context.Context) error { return remote(ctx, id) })
	return nil
}
