package hac

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"hacproxy/services/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookieName is the opaque session id cookie issued to clients.
const SessionCookieName = "hac_session"

const sessionIdContextKey = "hacproxy.session_id"

// NewRouter builds the proxy's HTTP surface on top of the service.
func NewRouter(svc *Service) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), sessionCookie())

	router.POST("/login", svc.handleLogin)
	router.POST("/schedule", svc.handleSchedule)
	router.POST("/logout", svc.handleLogout)
	return router
}

// requestLogger tags every request with a uuid and logs a summary line.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestId := uuid.NewString()
		c.Header("X-Request-Id", requestId)

		c.Next()

		status := c.Writer.Status()
		log := slog.InfoContext
		if status >= 500 {
			log = slog.ErrorContext
		}
		log(
			c.Request.Context(),
			"http request",
			"request_id", requestId,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
		)
	}
}

// sessionCookie ensures every client carries a session id cookie. Ids are
// opaque, all actual state lives server-side in the store.
func sessionCookie() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(SessionCookieName)
		if err != nil || id == "" {
			id, err = session.GenerateId()
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
				return
			}
			c.SetCookie(
				SessionCookieName,
				id,
				int(session.InactivityExpiry.Seconds()),
				"/",
				"",
				false,
				true,
			)
		}
		c.Set(sessionIdContextKey, id)
		c.Next()
	}
}

func sessionId(c *gin.Context) string {
	return c.GetString(sessionIdContextKey)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Service) handleLogin(c *gin.Context) {
	ctx := c.Request.Context()

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	err := s.Login(ctx, sessionId(c), req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "login successful"})
	case errors.Is(err, ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrMissingCredentials.Error()})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrInvalidCredentials.Error()})
	default:
		slog.ErrorContext(ctx, "login failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
	}
}

type scheduleRequest struct {
	Date string `json:"date"`
}

func (s *Service) handleSchedule(c *gin.Context) {
	ctx := c.Request.Context()

	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	result, err := s.Schedule(ctx, sessionId(c), req.Date)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, ErrBadDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrBadDate.Error()})
	case errors.Is(err, ErrNotLoggedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"error": ErrNotLoggedIn.Error()})
	default:
		slog.ErrorContext(ctx, "schedule fetch failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch schedule"})
	}
}

func (s *Service) handleLogout(c *gin.Context) {
	ctx := c.Request.Context()

	if err := s.Logout(ctx, sessionId(c)); err != nil {
		slog.ErrorContext(ctx, "logout failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
