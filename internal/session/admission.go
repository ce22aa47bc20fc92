package session

import (
	"time"

	"github.com/pkudinov/liveclass/internal/domain"
)

type joinPhase string

const (
	joinIdle      joinPhase = "idle"
	joinRequested joinPhase = "requested"
	joinApproved  joinPhase = "approved"
	joinDeclined  joinPhase = "declined"
)

// admissionStore holds both sides of the waiting-room flow: the local
// user's join phase and, when this client is the host, the pending
// request queue.
type admissionStore struct {
	phase joinPhase
	queue []domain.AdmissionTicket
}

func newAdmissionStore() *admissionStore {
	return &admissionStore{phase: joinIdle}
}

func (a *admissionStore) beginRequest() { a.phase = joinRequested }

// cancel returns to idle. Any approval arriving afterwards finds the
// phase no longer requested and is discarded.
func (a *admissionStore) cancel() { a.phase = joinIdle }

// applyApproved transitions requested→approved. Idempotent by
// construction: a duplicate or post-cancel approval is a no-op.
func (a *admissionStore) applyApproved() bool {
	if a.phase != joinRequested {
		return false
	}
	a.phase = joinApproved
	return true
}

func (a *admissionStore) applyDeclined() bool {
	if a.phase != joinRequested {
		return false
	}
	a.phase = joinDeclined
	return true
}

// upsert collapses duplicate join requests for one user to one entry.
func (a *admissionStore) upsert(t domain.AdmissionTicket) {
	for i := range a.queue {
		if a.queue[i].User == t.User {
			a.queue[i].Name = t.Name
			a.queue[i].Avatar = t.Avatar
			return
		}
	}
	if t.At.IsZero() {
		t.At = time.Now()
	}
	a.queue = append(a.queue, t)
}

func (a *admissionStore) remove(user domain.UserID) bool {
	for i := range a.queue {
		if a.queue[i].User == user {
			a.queue = append(a.queue[:i], a.queue[i+1:]...)
			return true
		}
	}
	return false
}

func (a *admissionStore) tickets() []domain.AdmissionTicket {
	return append([]domain.AdmissionTicket(nil), a.queue...)
}

func (a *admissionStore) reset() {
	a.phase = joinIdle
	a.queue = nil
}
