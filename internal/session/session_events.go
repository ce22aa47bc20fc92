package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
)

// handleEvent is the single dispatcher for every typed domain event.
// It runs on the loop goroutine; handlers mutate stores directly and
// rely on per-component idempotent guards instead of raising.
func (s *Session) handleEvent(ev core.Event) {
	switch e := ev.(type) {
	case core.JoinRequest:
		if s.isHost() {
			s.admission.upsert(domain.AdmissionTicket{User: e.User, Name: e.Name, Avatar: e.Avatar, At: time.Now()})
		}
	case core.Admitted:
		s.onAdmitted(e)
	case core.Declined:
		s.onDeclined(e)
	case core.Ended:
		if s.meeting != nil && (e.Meeting == "" || e.Meeting == s.meeting.ID) {
			s.teardown(domain.StatusEnded)
		}
	case core.Kicked:
		s.onKicked(e)
	case core.HandRaised:
		s.roster.setHand(e.User, true)
	case core.HandLowered:
		s.roster.setHand(e.User, false)
	case core.Reaction:
		s.applyReaction(e.User, e.Emoji)
	case core.Chat:
		s.chat.merge(e.Message)
	case core.PollCreated:
		s.polls.mergeCreated(e.Poll)
	case core.PollVote:
		s.polls.applyVote(e.Poll, e.User, e.Option)
	case core.MuteParticipant:
		s.onMuted(e)
	case core.ScreenSharePermission:
		s.onSharePermission(e)
	case core.StageRequested:
		if s.isHost() {
			s.stage.upsert(domain.StageRequest{User: e.User, Name: e.Name, Avatar: e.Avatar, At: time.Now()})
		}
	case core.StageAccepted:
		s.stage.applyAccepted(e.User, s.user)
	case core.StageDeclined:
		s.stage.applyDeclined(e.User, s.user)
	case core.RoleChanged:
		s.onRoleChanged(e)
	case core.ParticipantJoined:
		s.roster.applyDomainJoined(e.User, e.Name, e.Avatar)
		s.scheduleRefresh()
	case core.Speaking:
		s.roster.setSpeaking(e.User, e.On)
	}
}

func (s *Session) onAdmitted(e core.Admitted) {
	if e.User != s.user {
		s.admission.remove(e.User)
		s.roster.setAdmission(e.User, domain.AdmissionAdmitted)
		return
	}
	// Idempotent by construction: approval outside the requested phase
	// (duplicate, or arriving after cancel) is discarded.
	if !s.admission.applyApproved() {
		log.Debug().Str("module", "session").Str("tab", s.tab).Msg("discarded stale approval")
		return
	}
	cred := e.Credential
	go s.completeApprovedJoin(cred)
}

func (s *Session) completeApprovedJoin(cred core.Credential) {
	var m domain.Meeting
	ok := false
	s.call(func() {
		if s.meeting != nil {
			m = *s.meeting
			ok = true
		}
	})
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
	defer cancel()
	if err := s.connect(ctx, m, cred); err != nil {
		log.Warn().Err(err).Str("module", "session").Str("tab", s.tab).Msg("approved join failed")
	}
}

func (s *Session) onDeclined(e core.Declined) {
	if e.User != s.user {
		s.admission.remove(e.User)
		s.roster.setAdmission(e.User, domain.AdmissionDeclined)
		return
	}
	if s.admission.applyDeclined() {
		s.closeStreamLocked()
		s.meeting = nil
		s.status = domain.StatusLobby
	}
}

func (s *Session) onKicked(e core.Kicked) {
	if e.User == s.user {
		s.teardown(domain.StatusEnded)
		return
	}
	s.roster.removeUser(e.User)
	s.admission.remove(e.User)
	s.stage.remove(e.User)
	s.reactions.clear(e.User)
	if t, ok := s.reactionTimers[e.User]; ok {
		t.Stop()
		delete(s.reactionTimers, e.User)
	}
}

func (s *Session) onMuted(e core.MuteParticipant) {
	s.roster.setAudio(e.User, false)
	if e.User != s.user {
		return
	}
	// Host force-mute on the local user reaches the engine too.
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
	defer cancel()
	if err := s.engine.DisableAudio(ctx); err != nil {
		log.Warn().Err(err).Str("module", "session").Str("tab", s.tab).Msg("forced audio disable failed")
	}
}

func (s *Session) onSharePermission(e core.ScreenSharePermission) {
	if e.User != s.user || e.Allowed {
		return
	}
	// Revocation forces an engine-level disable even if the local
	// toggle never converged.
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
	defer cancel()
	if err := s.engine.DisableScreenShare(ctx); err != nil {
		log.Warn().Err(err).Str("module", "session").Str("tab", s.tab).Msg("forced share disable failed")
	}
}

func (s *Session) onRoleChanged(e core.RoleChanged) {
	s.stage.applyRoleChanged(e.User, s.user, e.Role)
	if _, ok := s.roster.getUser(e.User); !ok {
		// Role truth may land before either presence source; keep it
		// on a provisional entry so the sources commute.
		s.roster.applyDomainJoined(e.User, "", "")
	}
	s.roster.applyRole(e.User, e.Role)
	if e.User != s.user {
		return
	}
	s.selfRole = e.Role
	if e.Role == domain.RoleGuest {
		s.demoteSelf()
	}
	// Promotion has no forced side effect: media stays off until the
	// user enables it.
}

// demoteSelf enforces the guest invariant: local flags first, then
// audio, video and screen-share disabled at the engine in that order,
// individual failures swallowed.
func (s *Session) demoteSelf() {
	if p, ok := s.roster.getUser(s.user); ok {
		p.AudioOn = false
		p.VideoOn = false
		p.ScreenShareOn = false
	}
	if cur := s.share.current(); cur != nil && cur.Local {
		s.share.applyUpdate(cur.Peer, cur.User, true, false)
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
	defer cancel()
	for _, step := range []struct {
		what string
		call func(context.Context) error
	}{
		{"audio", s.engine.DisableAudio},
		{"video", s.engine.DisableVideo},
		{"screen-share", s.engine.DisableScreenShare},
	} {
		if err := step.call(ctx); err != nil {
			log.Warn().Err(err).Str("module", "session").Str("tab", s.tab).Str("track", step.what).Msg("guest demotion disable failed")
		}
	}
}

// applyReaction assigns the mark and (re)starts the expiry timer. The
// generation returned by the store ties the timer to this assignment
// so a superseded timer can never clear a newer mark.
func (s *Session) applyReaction(user domain.UserID, emoji string) {
	gen := s.reactions.set(user, emoji)
	if t, ok := s.reactionTimers[user]; ok {
		t.Stop()
	}
	s.reactionTimers[user] = time.AfterFunc(s.cfg.ReactionTTL, func() {
		s.post(func() { s.reactions.expire(user, gen) })
	})
}

// scheduleRefresh debounces a meeting detail refetch after bursts of
// joins; torn down together with the session.
func (s *Session) scheduleRefresh() {
	if s.dir == nil || s.meeting == nil {
		return
	}
	id := s.meeting.ID
	if s.refresh != nil {
		s.refresh.Stop()
	}
	s.refresh = time.AfterFunc(s.cfg.RosterDebounce, func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RequestTimeout)
		defer cancel()
		m, err := s.dir.FetchMeeting(ctx, id)
		if err != nil {
			log.Debug().Err(err).Str("module", "session").Str("meeting", string(id)).Msg("roster refresh failed")
			return
		}
		s.post(func() {
			if s.status == domain.StatusJoined && s.meeting != nil && s.meeting.ID == m.ID {
				*s.meeting = m
			}
		})
	})
}

func (s *Session) isHost() bool { return s.selfRole == domain.RoleHost }

// Media engine callbacks. The engine may call from any goroutine; each
// handler hops onto the loop before touching state.

func (s *Session) OnParticipantJoined(p core.RemotePeer) {
	s.post(func() {
		s.roster.applyMediaJoined(p)
		s.scheduleRefresh()
	})
}

func (s *Session) OnParticipantLeft(peer domain.PeerID) {
	s.post(func() {
		p := s.roster.applyMediaLeft(peer)
		s.share.applyUpdate(peer, "", false, false)
		if p == nil {
			return
		}
		s.stage.remove(p.User)
		s.reactions.clear(p.User)
		if t, ok := s.reactionTimers[p.User]; ok {
			t.Stop()
			delete(s.reactionTimers, p.User)
		}
	})
}

func (s *Session) OnAudioUpdate(peer domain.PeerID, on bool) {
	s.post(func() { s.roster.applyTrack(peer, trackAudio, on) })
}

func (s *Session) OnVideoUpdate(peer domain.PeerID, on bool) {
	s.post(func() { s.roster.applyTrack(peer, trackVideo, on) })
}

func (s *Session) OnScreenShareUpdate(peer domain.PeerID, on bool) {
	s.post(func() {
		p := s.roster.applyTrack(peer, trackScreen, on)
		user := domain.UserID("")
		if p != nil {
			user = p.User
		}
		s.share.applyUpdate(peer, user, peer == s.selfPeer, on)
	})
}
