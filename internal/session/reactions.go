package session

import (
	"sort"
	"time"

	"github.com/pkudinov/liveclass/internal/domain"
)

// reactionStore holds at most one live emoji mark per user. Every
// (re)assignment bumps the user's generation; an expiry carrying a
// stale generation belongs to a superseded timer and must not clear
// the mark.
type reactionStore struct {
	marks map[domain.UserID]domain.ReactionMark
	gens  map[domain.UserID]uint64
}

func newReactionStore() *reactionStore {
	return &reactionStore{
		marks: make(map[domain.UserID]domain.ReactionMark),
		gens:  make(map[domain.UserID]uint64),
	}
}

// set assigns or replaces the user's mark and returns the generation
// the matching expiry timer must present.
func (rs *reactionStore) set(user domain.UserID, emoji string) uint64 {
	gen := rs.gens[user] + 1
	rs.gens[user] = gen
	rs.marks[user] = domain.ReactionMark{User: user, Emoji: emoji, SetAt: time.Now(), Gen: gen}
	return gen
}

// expire clears the mark only if gen is still current.
func (rs *reactionStore) expire(user domain.UserID, gen uint64) bool {
	m, ok := rs.marks[user]
	if !ok || m.Gen != gen {
		return false
	}
	delete(rs.marks, user)
	return true
}

func (rs *reactionStore) clear(user domain.UserID) {
	delete(rs.marks, user)
}

func (rs *reactionStore) snapshot() []domain.ReactionMark {
	out := make([]domain.ReactionMark, 0, len(rs.marks))
	for _, m := range rs.marks {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out
}

func (rs *reactionStore) reset() {
	rs.marks = make(map[domain.UserID]domain.ReactionMark)
	rs.gens = make(map[domain.UserID]uint64)
}
