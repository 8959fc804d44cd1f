package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/session"
	"github.com/noah-isme/sma-timetable-portal/pkg/response"
)

const (
	// ContextSessionKey is the gin context key storing the *session.Session.
	ContextSessionKey = "session"
	sessionDirtyKey   = "session_dirty"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Session resolves the signed session cookie, starting a fresh session when
// needed. After the handler a modified session is saved and an unchanged one
// has its lifetime renewed, so active readers keep their filters.
func Session(manager *session.Manager, cookie CookieConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		raw, _ := c.Cookie(cookie.Name)
		s, signed, err := manager.Resolve(c.Request.Context(), raw)
		if err != nil {
			logger.Error("session lookup failed", zap.Error(err))
			response.Error(c, err)
			c.Abort()
			return
		}
		if signed != raw {
			c.Set(sessionDirtyKey, true)
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cookie.Name, signed, int(manager.TTL().Seconds()), "/", "", cookie.Secure, true)
		c.Set(ContextSessionKey, s)

		c.Next()

		if !c.GetBool(sessionDirtyKey) {
			if err := manager.Touch(c.Request.Context(), s); err != nil {
				logger.Warn("session renew failed", zap.String("session_id", s.ID), zap.Error(err))
			}
			return
		}
		if err := manager.Save(c.Request.Context(), s); err != nil {
			logger.Error("session save failed", zap.String("session_id", s.ID), zap.Error(err))
		}
	}
}

// CurrentSession returns the session attached by Session.
func CurrentSession(c *gin.Context) *session.Session {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	s, _ := value.(*session.Session)
	return s
}

// MarkSessionDirty schedules the session for saving once the handler returns.
func MarkSessionDirty(c *gin.Context) {
	c.Set(sessionDirtyKey, true)
}

// BearerToken returns the token from an Authorization header, letting JSON
// clients use their own credential instead of the session's.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
