package session

import (
	"sort"

	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
)

type trackKind int

const (
	trackAudio trackKind = iota
	trackVideo
	trackScreen
)

// rosterStore is the authoritative local participant map. It is fed by
// two independent sources: media engine callbacks keyed by peer id
// (presence and track truth) and domain events keyed by user id (role
// and admission truth). The two indexes are updated together so either
// key resolves without scanning, and updates from either source touch
// only the fields that source owns.
type rosterStore struct {
	byPeer map[domain.PeerID]*domain.Participant
	byUser map[domain.UserID]domain.PeerID
}

func newRosterStore() *rosterStore {
	return &rosterStore{
		byPeer: make(map[domain.PeerID]*domain.Participant),
		byUser: make(map[domain.UserID]domain.PeerID),
	}
}

// provisionalPeer keys a roster entry created from a domain event that
// arrived before the engine reported the connection.
func provisionalPeer(user domain.UserID) domain.PeerID {
	return domain.PeerID("pending:" + string(user))
}

// applyMediaJoined inserts or re-keys the entry for an engine-reported
// connection. Role, admission and hand state survive a reconnect under
// a new peer id; presence and track flags are taken from the engine.
func (r *rosterStore) applyMediaJoined(p core.RemotePeer) *domain.Participant {
	entry := &domain.Participant{
		Peer:          p.Peer,
		User:          p.User,
		Name:          p.Name,
		Avatar:        p.Avatar,
		Role:          domain.RoleParticipant,
		Admission:     domain.AdmissionAdmitted,
		AudioOn:       p.AudioOn,
		VideoOn:       p.VideoOn,
		ScreenShareOn: p.ScreenShareOn,
	}
	if oldPeer, ok := r.byUser[p.User]; ok && oldPeer != p.Peer {
		if old := r.byPeer[oldPeer]; old != nil {
			entry.Role = old.Role
			entry.Admission = old.Admission
			entry.HandRaised = old.HandRaised
			if entry.Name == "" {
				entry.Name = old.Name
			}
			if entry.Avatar == "" {
				entry.Avatar = old.Avatar
			}
		}
		delete(r.byPeer, oldPeer)
	} else if existing := r.byPeer[p.Peer]; existing != nil {
		entry.Role = existing.Role
		entry.Admission = existing.Admission
		entry.HandRaised = existing.HandRaised
	}
	r.byPeer[p.Peer] = entry
	r.byUser[p.User] = p.Peer
	return entry
}

// applyDomainJoined records a participant announced on the event stream
// before (or without) an engine connection. If the user is already
// known this only fills identity gaps.
func (r *rosterStore) applyDomainJoined(user domain.UserID, name, avatar string) *domain.Participant {
	if peer, ok := r.byUser[user]; ok {
		p := r.byPeer[peer]
		if p.Name == "" {
			p.Name = name
		}
		if p.Avatar == "" {
			p.Avatar = avatar
		}
		return p
	}
	peer := provisionalPeer(user)
	p := &domain.Participant{
		Peer:      peer,
		User:      user,
		Name:      name,
		Avatar:    avatar,
		Role:      domain.RoleParticipant,
		Admission: domain.AdmissionAdmitted,
	}
	r.byPeer[peer] = p
	r.byUser[user] = peer
	return p
}

func (r *rosterStore) applyMediaLeft(peer domain.PeerID) *domain.Participant {
	p, ok := r.byPeer[peer]
	if !ok {
		return nil
	}
	delete(r.byPeer, peer)
	if r.byUser[p.User] == peer {
		delete(r.byUser, p.User)
	}
	return p
}

func (r *rosterStore) removeUser(user domain.UserID) *domain.Participant {
	peer, ok := r.byUser[user]
	if !ok {
		return nil
	}
	return r.applyMediaLeft(peer)
}

func (r *rosterStore) applyTrack(peer domain.PeerID, kind trackKind, on bool) *domain.Participant {
	p, ok := r.byPeer[peer]
	if !ok {
		return nil
	}
	switch kind {
	case trackAudio:
		p.AudioOn = on
	case trackVideo:
		p.VideoOn = on
	case trackScreen:
		p.ScreenShareOn = on
	}
	return p
}

// applyRole sets the role truth carried by a domain event. The reverse
// index resolves the user to whatever peer id they currently hold.
func (r *rosterStore) applyRole(user domain.UserID, role domain.Role) *domain.Participant {
	peer, ok := r.byUser[user]
	if !ok {
		return nil
	}
	p := r.byPeer[peer]
	p.Role = role
	return p
}

func (r *rosterStore) setAdmission(user domain.UserID, a domain.Admission) *domain.Participant {
	peer, ok := r.byUser[user]
	if !ok {
		return nil
	}
	p := r.byPeer[peer]
	p.Admission = a
	return p
}

func (r *rosterStore) setHand(user domain.UserID, raised bool) *domain.Participant {
	peer, ok := r.byUser[user]
	if !ok {
		return nil
	}
	p := r.byPeer[peer]
	p.HandRaised = raised
	return p
}

func (r *rosterStore) setSpeaking(user domain.UserID, on bool) *domain.Participant {
	peer, ok := r.byUser[user]
	if !ok {
		return nil
	}
	p := r.byPeer[peer]
	p.Speaking = on
	return p
}

func (r *rosterStore) setAudio(user domain.UserID, on bool) *domain.Participant {
	peer, ok := r.byUser[user]
	if !ok {
		return nil
	}
	p := r.byPeer[peer]
	p.AudioOn = on
	return p
}

func (r *rosterStore) get(peer domain.PeerID) (*domain.Participant, bool) {
	p, ok := r.byPeer[peer]
	return p, ok
}

func (r *rosterStore) getUser(user domain.UserID) (*domain.Participant, bool) {
	peer, ok := r.byUser[user]
	if !ok {
		return nil, false
	}
	return r.byPeer[peer], true
}

func (r *rosterStore) count() int { return len(r.byPeer) }

// snapshot returns value copies sorted by name, then peer id for a
// stable order between equal names.
func (r *rosterStore) snapshot() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.byPeer))
	for _, p := range r.byPeer {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Peer < out[j].Peer
	})
	return out
}

func (r *rosterStore) reset() {
	r.byPeer = make(map[domain.PeerID]*domain.Participant)
	r.byUser = make(map[domain.UserID]domain.PeerID)
}
