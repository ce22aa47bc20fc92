package session

import (
	"context"
	"testing"

	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
)

func TestShareArbiterSinglePresenter(t *testing.T) {
	sa := newShareArbiter()

	sa.applyUpdate("peer-a", "u-a", false, true)
	sa.applyUpdate("peer-b", "u-b", false, true)
	cur := sa.current()
	if cur == nil || cur.Peer != "peer-b" {
		t.Fatalf("presenter = %+v, want peer-b", cur)
	}

	// A stop from the superseded presenter must not clear the newer one.
	sa.applyUpdate("peer-a", "u-a", false, false)
	if cur := sa.current(); cur == nil || cur.Peer != "peer-b" {
		t.Fatalf("presenter = %+v after stale stop, want peer-b", cur)
	}

	sa.applyUpdate("peer-b", "u-b", false, false)
	if sa.current() != nil {
		t.Error("presenter should clear on a matching stop")
	}
}

func TestScreenShareUpdateDrivesArbiter(t *testing.T) {
	s, eng, _ := hostSession(t)
	eng.events().OnParticipantJoined(core.RemotePeer{Peer: "peer-2", User: "u-2", Name: "Bo"})
	eng.events().OnScreenShareUpdate("peer-2", true)

	waitFor(t, "presenter", func() bool {
		cur := s.Snapshot().Presenter
		return cur != nil && cur.Peer == "peer-2" && cur.User == "u-2" && !cur.Local
	})

	eng.events().OnScreenShareUpdate("peer-2", false)
	waitFor(t, "presenter cleared", func() bool { return s.Snapshot().Presenter == nil })
}

func TestLocalShareMarkedLocal(t *testing.T) {
	s, eng, _ := hostSession(t)
	eng.events().OnScreenShareUpdate("peer-self", true)

	waitFor(t, "local presenter", func() bool {
		cur := s.Snapshot().Presenter
		return cur != nil && cur.Local && cur.User == "host-1"
	})
}

func TestSetScreenShareGuards(t *testing.T) {
	eng := newFakeEngine()
	dir := newFakeDirectory()
	m := testMeeting("host-1")
	m.Settings.AllowScreenShare = false
	dir.joinResult = core.JoinResult{Meeting: m, Credential: "cred"}
	s := newTestSession(t, "u-2", testConfig(), eng, dir)
	if err := s.Join(context.Background(), m.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := s.SetScreenShare(context.Background(), true); err != ErrShareDisabled {
		t.Fatalf("err = %v, want ErrShareDisabled", err)
	}
	// Stopping is always allowed.
	if err := s.SetScreenShare(context.Background(), false); err != nil {
		t.Fatalf("stop share: %v", err)
	}

	deliver(s, core.RoleChanged{User: "u-2", Role: domain.RoleGuest})
	if err := s.SetAudio(context.Background(), true); err != ErrOffStage {
		t.Fatalf("err = %v, want ErrOffStage for guest publish", err)
	}
}

func TestSharePermissionRevokeForcesDisable(t *testing.T) {
	s, eng, _ := memberSession(t, "u-2", testConfig())

	deliver(s, core.ScreenSharePermission{User: "u-2", Allowed: false})
	if eng.count("disable-share") != 1 {
		t.Fatalf("disable-share calls = %d, want 1", eng.count("disable-share"))
	}

	// A grant or someone else's revocation triggers nothing.
	deliver(s, core.ScreenSharePermission{User: "u-2", Allowed: true})
	deliver(s, core.ScreenSharePermission{User: "u-9", Allowed: false})
	if eng.count("disable-share") != 1 {
		t.Fatalf("disable-share calls = %d, want still 1", eng.count("disable-share"))
	}
}
