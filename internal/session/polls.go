package session

import "github.com/pkudinov/liveclass/internal/domain"

// pollStore keeps polls in creation order. Creation is optimistic for
// the creator; the matching broadcast for the same id is treated as a
// confirmation, never a duplicate insert. Vote events are additive
// deltas merged idempotently by voter-set membership.
type pollStore struct {
	polls []*domain.Poll
	byID  map[string]*domain.Poll
}

func newPollStore() *pollStore {
	return &pollStore{byID: make(map[string]*domain.Poll)}
}

func (ps *pollStore) createLocal(p *domain.Poll) {
	ps.polls = append(ps.polls, p)
	ps.byID[p.ID] = p
}

// mergeCreated inserts a broadcast poll unless the id is already
// present (the creator's own optimistic copy).
func (ps *pollStore) mergeCreated(p domain.Poll) bool {
	if _, ok := ps.byID[p.ID]; ok {
		return false
	}
	cp := p.Clone()
	if cp.Voters == nil {
		cp.Voters = make(map[domain.UserID]int)
	}
	if cp.Tallies == nil {
		cp.Tallies = make([]int, len(cp.Options))
	}
	ps.polls = append(ps.polls, cp)
	ps.byID[cp.ID] = cp
	return true
}

// applyVote counts one vote delta. A voter already present is never
// re-applied, which also suppresses the echo of a local optimistic
// vote.
func (ps *pollStore) applyVote(pollID string, user domain.UserID, option int) bool {
	p, ok := ps.byID[pollID]
	if !ok {
		return false
	}
	counted, err := p.CountVote(user, option)
	return err == nil && counted
}

func (ps *pollStore) get(pollID string) (*domain.Poll, bool) {
	p, ok := ps.byID[pollID]
	return p, ok
}

func (ps *pollStore) snapshot() []domain.Poll {
	out := make([]domain.Poll, 0, len(ps.polls))
	for _, p := range ps.polls {
		out = append(out, *p.Clone())
	}
	return out
}

func (ps *pollStore) reset() {
	ps.polls = nil
	ps.byID = make(map[string]*domain.Poll)
}
