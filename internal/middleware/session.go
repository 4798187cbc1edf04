package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/GoPolymarket/clawdash/internal/pkg/logger"
	"github.com/GoPolymarket/clawdash/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	SessionCookieName = "clawdbot_session"
	ContextUserKey    = "user"
	LoginPath         = "/login"
)

// SessionVerifier is satisfied by *service.AuthService.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*service.SessionClaims, error)
}

// SessionGate lets exempt paths through and redirects every other request
// without a verified session to the login page.
func SessionGate(auth SessionVerifier, metricsPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsExemptPath(c.Request.URL.Path, metricsPath) {
			c.Next()
			return
		}

		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		claims, err := auth.Verify(c.Request.Context(), token)
		if err != nil {
			logger.Debug("session rejected", "path", c.Request.URL.Path, "error", err)
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims.Username())
		c.Next()
	}
}

// IsExemptPath reports whether path bypasses the session gate.
func IsExemptPath(path, metricsPath string) bool {
	switch {
	case path == LoginPath,
		path == "/favicon.ico",
		path == "/health",
		metricsPath != "" && path == metricsPath:
		return true
	case strings.HasPrefix(path, "/api/auth/"),
		strings.HasPrefix(path, "/static/"):
		return true
	default:
		return false
	}
}

// SetSessionCookie writes the session cookie: HttpOnly, SameSite=Lax, path /.
func SetSessionCookie(c *gin.Context, token string, ttl time.Duration, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, token, int(ttl.Seconds()), "/", "", secure, true)
}

// ClearSessionCookie expires the session cookie (Max-Age=0).
func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", secure, true)
}
