package session

import (
	"testing"

	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
)

func TestRosterSourcesCommute(t *testing.T) {
	peer := core.RemotePeer{Peer: "peer-9", User: "u-9", Name: "Dana", AudioOn: true}

	mediaFirst := newRosterStore()
	mediaFirst.applyMediaJoined(peer)
	mediaFirst.applyRole("u-9", domain.RoleGuest)

	domainFirst := newRosterStore()
	domainFirst.applyDomainJoined("u-9", "Dana", "")
	domainFirst.applyRole("u-9", domain.RoleGuest)
	domainFirst.applyMediaJoined(peer)

	for name, r := range map[string]*rosterStore{"media-first": mediaFirst, "domain-first": domainFirst} {
		p, ok := r.getUser("u-9")
		if !ok {
			t.Fatalf("%s: u-9 missing", name)
		}
		if p.Peer != "peer-9" {
			t.Errorf("%s: peer = %q, want peer-9", name, p.Peer)
		}
		if p.Role != domain.RoleGuest {
			t.Errorf("%s: role = %q, want guest", name, p.Role)
		}
		if !p.AudioOn {
			t.Errorf("%s: audio flag lost", name)
		}
		if r.count() != 1 {
			t.Errorf("%s: count = %d, want 1", name, r.count())
		}
	}
}

func TestRosterReconnectKeepsDomainState(t *testing.T) {
	r := newRosterStore()
	r.applyMediaJoined(core.RemotePeer{Peer: "peer-old", User: "u-3", Name: "Ben"})
	r.applyRole("u-3", domain.RoleGuest)
	r.setHand("u-3", true)

	// Same user reconnects under a fresh transport id.
	r.applyMediaJoined(core.RemotePeer{Peer: "peer-new", User: "u-3", VideoOn: true})

	if _, ok := r.get("peer-old"); ok {
		t.Fatal("stale peer entry survived reconnect")
	}
	p, ok := r.getUser("u-3")
	if !ok {
		t.Fatal("u-3 missing after reconnect")
	}
	if p.Peer != "peer-new" {
		t.Errorf("peer = %q, want peer-new", p.Peer)
	}
	if p.Role != domain.RoleGuest || !p.HandRaised {
		t.Errorf("domain state lost: role=%q hand=%v", p.Role, p.HandRaised)
	}
	if p.Name != "Ben" {
		t.Errorf("name = %q, want Ben carried over", p.Name)
	}
	if !p.VideoOn {
		t.Error("track state should come from the new connection")
	}
	if r.count() != 1 {
		t.Errorf("count = %d, want 1", r.count())
	}
}

func TestRosterTrackAndFlagUpdates(t *testing.T) {
	r := newRosterStore()
	r.applyMediaJoined(core.RemotePeer{Peer: "peer-1", User: "u-1"})

	r.applyTrack("peer-1", trackAudio, true)
	r.applyTrack("peer-1", trackScreen, true)
	r.setSpeaking("u-1", true)
	p, _ := r.get("peer-1")
	if !p.AudioOn || !p.ScreenShareOn || p.VideoOn || !p.Speaking {
		t.Errorf("flags = audio=%v video=%v screen=%v speaking=%v", p.AudioOn, p.VideoOn, p.ScreenShareOn, p.Speaking)
	}

	if got := r.applyTrack("peer-unknown", trackAudio, true); got != nil {
		t.Error("unknown peer should be ignored")
	}
	if got := r.setHand("u-unknown", true); got != nil {
		t.Error("unknown user should be ignored")
	}
}

func TestRosterSnapshotSortedByName(t *testing.T) {
	r := newRosterStore()
	r.applyMediaJoined(core.RemotePeer{Peer: "peer-b", User: "u-b", Name: "Zoe"})
	r.applyMediaJoined(core.RemotePeer{Peer: "peer-a", User: "u-a", Name: "Amir"})
	r.applyMediaJoined(core.RemotePeer{Peer: "peer-c", User: "u-c", Name: "Amir"})

	snap := r.snapshot()
	if len(snap) != 3 {
		t.Fatalf("len = %d, want 3", len(snap))
	}
	if snap[0].Peer != "peer-a" || snap[1].Peer != "peer-c" || snap[2].Peer != "peer-b" {
		t.Errorf("order = %s, %s, %s", snap[0].Peer, snap[1].Peer, snap[2].Peer)
	}

	// Snapshot entries are value copies.
	snap[0].AudioOn = true
	if p, _ := r.get("peer-a"); p.AudioOn {
		t.Error("snapshot mutation leaked into the store")
	}
}

func TestRosterDomainJoinFillsIdentityGaps(t *testing.T) {
	r := newRosterStore()
	r.applyMediaJoined(core.RemotePeer{Peer: "peer-1", User: "u-1"})
	r.applyDomainJoined("u-1", "Mia", "avatar.png")

	p, _ := r.getUser("u-1")
	if p.Name != "Mia" || p.Avatar != "avatar.png" {
		t.Errorf("identity not filled: name=%q avatar=%q", p.Name, p.Avatar)
	}
	if r.count() != 1 {
		t.Errorf("count = %d, want 1 (no duplicate entry)", r.count())
	}
}
