package domain

import (
	"errors"
	"time"
)

const (
	MaxPollQuestionLen = 200
	MaxPollOptions     = 10
)

var (
	ErrPollQuestionEmpty = errors.New("poll question empty")
	ErrPollTooFewOptions = errors.New("poll needs at least two options")
	ErrPollTooManyOpts   = errors.New("poll has too many options")
	ErrPollBadOption     = errors.New("poll option index out of range")
)

// Poll is append-only after creation except for its tallies. Voters maps
// each voter to the option index they chose, so it doubles as the
// at-most-once vote set and the per-option voter detail.
type Poll struct {
	ID        string         `json:"id"`
	Creator   UserID         `json:"creator"`
	Question  string         `json:"question"`
	Options   []string       `json:"options"`
	Tallies   []int          `json:"tallies"`
	Voters    map[UserID]int `json:"voters"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewPoll(id string, creator UserID, question string, options []string) (*Poll, error) {
	if len(question) == 0 || len(question) > MaxPollQuestionLen {
		return nil, ErrPollQuestionEmpty
	}
	if len(options) < 2 {
		return nil, ErrPollTooFewOptions
	}
	if len(options) > MaxPollOptions {
		return nil, ErrPollTooManyOpts
	}
	return &Poll{
		ID:        id,
		Creator:   creator,
		Question:  question,
		Options:   append([]string(nil), options...),
		Tallies:   make([]int, len(options)),
		Voters:    make(map[UserID]int),
		CreatedAt: time.Now(),
	}, nil
}

// HasVoted reports whether user already holds a counted vote.
func (p *Poll) HasVoted(user UserID) bool {
	_, ok := p.Voters[user]
	return ok
}

// CountVote applies one additive vote delta. It is idempotent per user:
// a voter already present is never re-applied, whatever option the
// duplicate event names.
func (p *Poll) CountVote(user UserID, option int) (bool, error) {
	if option < 0 || option >= len(p.Options) {
		return false, ErrPollBadOption
	}
	if p.HasVoted(user) {
		return false, nil
	}
	p.Voters[user] = option
	p.Tallies[option]++
	return true, nil
}

// VotersOf returns the voter detail list for one option.
func (p *Poll) VotersOf(option int) []UserID {
	var out []UserID
	for u, opt := range p.Voters {
		if opt == option {
			out = append(out, u)
		}
	}
	return out
}

// Clone returns a deep copy safe to hand to readers.
func (p *Poll) Clone() *Poll {
	cp := *p
	cp.Options = append([]string(nil), p.Options...)
	cp.Tallies = append([]int(nil), p.Tallies...)
	cp.Voters = make(map[UserID]int, len(p.Voters))
	for u, opt := range p.Voters {
		cp.Voters[u] = opt
	}
	return &cp
}
