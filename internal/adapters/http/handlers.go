package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pkudinov/liveclass/internal/app"
	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/domain"
	"github.com/pkudinov/liveclass/internal/session"
)

type Controller struct {
	mgr *app.Manager
}

// live returns the tab's session if one exists; everything except
// create/join requires it.
func (ctl *Controller) live(c *gin.Context) (*session.Session, bool) {
	tab := c.GetString("client_token")
	s, ok := ctl.mgr.Get(tab)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no session for this tab"})
		return nil, false
	}
	return s, true
}

func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrTitleEmpty), errors.Is(err, domain.ErrTitleTooLong), errors.Is(err, domain.ErrMeetingIDSize):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrMeetingOccupied):
		status = http.StatusConflict
	case errors.Is(err, session.ErrSessionActive):
		status = http.StatusConflict
	case errors.Is(err, session.ErrNotJoined), errors.Is(err, session.ErrNotWaiting):
		status = http.StatusConflict
	case errors.Is(err, session.ErrNotHost), errors.Is(err, session.ErrNotGuest), errors.Is(err, session.ErrOffStage), errors.Is(err, session.ErrShareDisabled):
		status = http.StatusForbidden
	case errors.Is(err, session.ErrPollUnknown), errors.Is(err, core.ErrMeetingNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrMeetingFull):
		status = http.StatusConflict
	case errors.Is(err, session.ErrJoinFailed), errors.Is(err, core.ErrDirectory):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type identityRequest struct {
	UserID domain.UserID `json:"user_id" binding:"required"`
	Name   string        `json:"name" binding:"required"`
}

type createMeetingRequest struct {
	identityRequest
	Title    string          `json:"title" binding:"required"`
	Settings domain.Settings `json:"settings"`
}

func (ctl *Controller) createMeeting(c *gin.Context) {
	var req createMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if err := domain.ValidateDisplayName(req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s := ctl.mgr.Session(c.GetString("client_token"), req.UserID, req.Name)
	if err := s.Create(c.Request.Context(), req.Title, req.Settings); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Snapshot())
}

type joinMeetingRequest struct {
	identityRequest
	Meeting domain.MeetingID `json:"meeting_id" binding:"required"`
}

func (ctl *Controller) joinMeeting(c *gin.Context) {
	var req joinMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if err := domain.ValidateDisplayName(req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s := ctl.mgr.Session(c.GetString("client_token"), req.UserID, req.Name)
	if err := s.Join(c.Request.Context(), req.Meeting); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (ctl *Controller) rejoinMeeting(c *gin.Context) {
	var req joinMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if err := domain.ValidateDisplayName(req.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s := ctl.mgr.Session(c.GetString("client_token"), req.UserID, req.Name)
	if err := s.Rejoin(c.Request.Context(), req.Meeting); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (ctl *Controller) snapshot(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (ctl *Controller) cancelJoin(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	if err := s.CancelJoin(); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *Controller) leave(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	if err := s.Leave(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *Controller) end(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	if err := s.End(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type trackRequest struct {
	Kind string `json:"kind" binding:"required"` // audio | video | screen-share
	On   bool   `json:"on"`
}

func (ctl *Controller) setTrack(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	var err error
	switch req.Kind {
	case "audio":
		err = s.SetAudio(c.Request.Context(), req.On)
	case "video":
		err = s.SetVideo(c.Request.Context(), req.On)
	case "screen-share":
		err = s.SetScreenShare(c.Request.Context(), req.On)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown track kind"})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type chatRequest struct {
	Body string `json:"body" binding:"required"`
}

func (ctl *Controller) sendChat(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if err := s.SendChat(req.Body); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

type chatViewRequest struct {
	Active bool `json:"active"`
}

func (ctl *Controller) setChatView(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	var req chatViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	s.SetChatViewActive(req.Active)
	c.Status(http.StatusNoContent)
}

type createPollRequest struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required"`
}

func (ctl *Controller) createPoll(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	var req createPollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	id, err := s.CreatePoll(req.Question, req.Options)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"poll_id": id})
}

type voteRequest struct {
	Option int `json:"option"`
}

func (ctl *Controller) vote(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if err := s.Vote(c.Param("id"), req.Option); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

func (ctl *Controller) react(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if err := s.React(req.Emoji); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type handRequest struct {
	Raised bool `json:"raised"`
}

func (ctl *Controller) setHand(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	var req handRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if err := s.SetHand(req.Raised); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type userRequest struct {
	UserID domain.UserID `json:"user_id" binding:"required"`
}

func (ctl *Controller) admit(c *gin.Context) {
	ctl.hostAction(c, func(s *session.Session, user domain.UserID) error { return s.Admit(user) })
}

func (ctl *Controller) declineJoin(c *gin.Context) {
	ctl.hostAction(c, func(s *session.Session, user domain.UserID) error { return s.DeclineJoin(user) })
}

func (ctl *Controller) mute(c *gin.Context) {
	ctl.hostAction(c, func(s *session.Session, user domain.UserID) error { return s.Mute(user) })
}

func (ctl *Controller) kick(c *gin.Context) {
	ctl.hostAction(c, func(s *session.Session, user domain.UserID) error { return s.Kick(user) })
}

func (ctl *Controller) inviteStage(c *gin.Context) {
	ctl.hostAction(c, func(s *session.Session, user domain.UserID) error { return s.InviteStage(user) })
}

func (ctl *Controller) removeStage(c *gin.Context) {
	ctl.hostAction(c, func(s *session.Session, user domain.UserID) error { return s.RemoveStage(user) })
}

func (ctl *Controller) hostAction(c *gin.Context, fn func(*session.Session, domain.UserID) error) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if err := fn(s, req.UserID); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *Controller) requestStage(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	if err := s.RequestStage(); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type stageResolveRequest struct {
	UserID domain.UserID `json:"user_id" binding:"required"`
	Accept bool          `json:"accept"`
}

func (ctl *Controller) resolveStage(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	var req stageResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid fields"})
		return
	}
	if err := s.ResolveStage(req.UserID, req.Accept); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *Controller) history(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	entries, err := ctl.mgr.History(c.Request.Context(), s.User())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (ctl *Controller) deleteHistoryEntry(c *gin.Context) {
	s, ok := ctl.live(c)
	if !ok {
		return
	}
	if err := ctl.mgr.DeleteHistoryEntry(c.Request.Context(), s.User(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
