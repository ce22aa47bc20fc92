package session

import (
	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
)

// shareArbiter enforces at most one active presenter. It is mutated
// only from engine screenShareUpdate callbacks; a local toggle goes
// straight to the engine and the resulting transition comes back on
// the engine's own channel.
type shareArbiter struct {
	presenter *core.ScreenPresenter
}

func newShareArbiter() *shareArbiter { return &shareArbiter{} }

func (sa *shareArbiter) applyUpdate(peer domain.PeerID, user domain.UserID, local, on bool) {
	if on {
		sa.presenter = &core.ScreenPresenter{Peer: peer, User: user, Local: local}
		return
	}
	if sa.presenter != nil && sa.presenter.Peer == peer {
		sa.presenter = nil
	}
}

func (sa *shareArbiter) current() *core.ScreenPresenter {
	if sa.presenter == nil {
		return nil
	}
	cp := *sa.presenter
	return &cp
}

func (sa *shareArbiter) reset() { sa.presenter = nil }
