package session

import (
	"time"

	"github.com/pkudinov/liveclass/internal/domain"
)

// stageStore tracks the local user's promotion request and, for hosts,
// the pending request list.
type stageStore struct {
	self  domain.StageState
	queue []domain.StageRequest
}

func newStageStore() *stageStore {
	return &stageStore{self: domain.StageNone}
}

// requestSelf is set optimistically on the requester's own action.
func (st *stageStore) requestSelf() { st.self = domain.StageRequested }

func (st *stageStore) applyAccepted(user, self domain.UserID) {
	if user == self && st.self == domain.StageRequested {
		st.self = domain.StageAccepted
	}
	st.remove(user)
}

func (st *stageStore) applyDeclined(user, self domain.UserID) {
	if user == self && st.self == domain.StageRequested {
		st.self = domain.StageDeclined
	}
	st.remove(user)
}

// applyRoleChanged: any role transition implicitly resolves a pending
// request for that user.
func (st *stageStore) applyRoleChanged(user, self domain.UserID, role domain.Role) {
	if user == self && st.self == domain.StageRequested {
		if role.OnStage() {
			st.self = domain.StageAccepted
		} else {
			st.self = domain.StageNone
		}
	}
	st.remove(user)
}

func (st *stageStore) upsert(req domain.StageRequest) {
	for i := range st.queue {
		if st.queue[i].User == req.User {
			st.queue[i].Name = req.Name
			st.queue[i].Avatar = req.Avatar
			return
		}
	}
	if req.At.IsZero() {
		req.At = time.Now()
	}
	st.queue = append(st.queue, req)
}

func (st *stageStore) remove(user domain.UserID) {
	for i := range st.queue {
		if st.queue[i].User == user {
			st.queue = append(st.queue[:i], st.queue[i+1:]...)
			return
		}
	}
}

func (st *stageStore) requests() []domain.StageRequest {
	return append([]domain.StageRequest(nil), st.queue...)
}

func (st *stageStore) reset() {
	st.self = domain.StageNone
	st.queue = nil
}
