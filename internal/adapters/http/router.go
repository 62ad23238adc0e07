// Package http wires the gin router: websocket entry point, auth endpoints,
// the ICE server list and static assets.
package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"webrtc-signaling-server/internal/accounts"
	"webrtc-signaling-server/internal/adapters/ws"
	"webrtc-signaling-server/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *ws.Controller, svc *accounts.Service) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("SignalSessions", store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", registerHandler(svc))
	auth.POST("/login", loginHandler(svc))
	auth.POST("/logout", logoutHandler(svc))

	api.GET("/users/online", onlineUsersHandler(svc))
	api.GET("/ice", iceServersHandler(cfg))

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Msg("ws signal endpoint hit")
		ctl.HandleSignal(ctx, c)
	})

	return r
}
