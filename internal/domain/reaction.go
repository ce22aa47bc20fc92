package domain

import "time"

// ReactionMark is one user's transient emoji reaction. Gen increments on
// every (re)assignment so an expiry timer belonging to a superseded
// assignment can be told apart from the live one.
type ReactionMark struct {
	User  UserID    `json:"user"`
	Emoji string    `json:"emoji"`
	SetAt time.Time `json:"set_at"`
	Gen   uint64    `json:"-"`
}
