// Package http exposes the coordinator to the presentation layer: a
// read-only snapshot plus every meeting action, scoped to one tab by a
// client token cookie.
package http

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pkudinov/liveclass/internal/app"
	"github.com/pkudinov/liveclass/internal/config"
)

func genClientToken() string {
	return uuid.NewString()
}

// ClientTokenMiddleware issues the per-tab token. A browser tab keeps
// its token for the cookie lifetime, which is what ties it to one
// Session.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, mgr *app.Manager) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("LiveClassSessions", store))
	r.Use(ClientTokenMiddleware())

	ctl := &Controller{mgr: mgr}

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	api.POST("/meetings", ctl.createMeeting)
	api.POST("/meetings/join", ctl.joinMeeting)
	api.POST("/meetings/rejoin", ctl.rejoinMeeting)

	api.GET("/session", ctl.snapshot)
	api.POST("/session/cancel", ctl.cancelJoin)
	api.POST("/session/leave", ctl.leave)
	api.POST("/session/end", ctl.end)

	api.POST("/session/tracks", ctl.setTrack)
	api.POST("/session/chat", ctl.sendChat)
	api.POST("/session/chat/view", ctl.setChatView)
	api.POST("/session/polls", ctl.createPoll)
	api.POST("/session/polls/:id/vote", ctl.vote)
	api.POST("/session/reactions", ctl.react)
	api.POST("/session/hand", ctl.setHand)

	api.POST("/session/admit", ctl.admit)
	api.POST("/session/decline", ctl.declineJoin)
	api.POST("/session/mute", ctl.mute)
	api.POST("/session/kick", ctl.kick)

	api.POST("/session/stage/request", ctl.requestStage)
	api.POST("/session/stage/resolve", ctl.resolveStage)
	api.POST("/session/stage/invite", ctl.inviteStage)
	api.POST("/session/stage/remove", ctl.removeStage)

	api.GET("/history", ctl.history)
	api.DELETE("/history/:id", ctl.deleteHistoryEntry)

	return r
}
