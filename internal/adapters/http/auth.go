package http

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"webrtc-signaling-server/internal/accounts"
)

const sessionUserKey = "username"

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=36"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"fullName" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func registerHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		user, err := svc.Register(req.Username, req.Password, req.FullName)
		if errors.Is(err, accounts.ErrDuplicateUsername) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
			return
		}
		if err != nil {
			log.Warn().Err(err).Str("module", "adapters.http").Str("username", req.Username).Msg("registration rejected")
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func loginHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		user, err := svc.Authenticate(req.Username, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		sess := sessions.Default(c)
		sess.Set(sessionUserKey, user.Username)
		if err := sess.Save(); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session error"})
			return
		}
		svc.SetOnline(user.Username, true)
		user.Online = true
		c.JSON(http.StatusOK, user)
	}
}

func logoutHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if username, ok := sess.Get(sessionUserKey).(string); ok {
			svc.SetOnline(username, false)
		}
		sess.Clear()
		if err := sess.Save(); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("session save")
		}
		c.JSON(http.StatusOK, gin.H{"status": "logged out"})
	}
}

func onlineUsersHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.ListOnline())
	}
}
