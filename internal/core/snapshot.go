package core

import "github.com/pkudinov/liveclass/internal/domain"

// ScreenPresenter identifies the at-most-one active screen sharer.
type ScreenPresenter struct {
	Peer  domain.PeerID `json:"peer_id"`
	User  domain.UserID `json:"user_id"`
	Local bool          `json:"local"`
}

// Snapshot is the read-only view handed to the presentation layer.
// Everything in it is a copy; readers never alias live store state.
type Snapshot struct {
	Status  domain.Status   `json:"status"`
	Meeting *domain.Meeting `json:"meeting,omitempty"`

	SelfUser domain.UserID `json:"self_user"`
	SelfName string        `json:"self_name"`
	SelfPeer domain.PeerID `json:"self_peer,omitempty"`
	SelfRole domain.Role   `json:"self_role,omitempty"`

	Participants      []domain.Participant     `json:"participants"`
	PendingAdmissions []domain.AdmissionTicket `json:"pending_admissions,omitempty"`

	StageSelf     domain.StageState     `json:"stage_self"`
	StageRequests []domain.StageRequest `json:"stage_requests,omitempty"`

	Chat       []domain.ChatMessage `json:"chat"`
	ChatUnread int                  `json:"chat_unread"`

	Polls []domain.Poll `json:"polls"`

	Reactions []domain.ReactionMark `json:"reactions,omitempty"`
	Hands     []domain.UserID       `json:"hands,omitempty"`

	Presenter   *ScreenPresenter `json:"presenter,omitempty"`
	TabConflict bool             `json:"tab_conflict"`
}
