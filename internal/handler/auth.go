package handler

import (
	"errors"
	"net/http"

	"github.com/GoPolymarket/clawdash/internal/middleware"
	"github.com/GoPolymarket/clawdash/internal/pkg/apperrors"
	"github.com/GoPolymarket/clawdash/internal/pkg/logger"
	"github.com/GoPolymarket/clawdash/internal/pkg/metrics"
	"github.com/GoPolymarket/clawdash/internal/service"
	"github.com/gin-gonic/gin"
)

const loginPage = `<!doctype html>
<html><head><meta charset="utf-8"><title>clawdash</title></head>
<body>
<form id="login">
<input name="username" autocomplete="username" placeholder="username">
<input name="password" type="password" autocomplete="current-password" placeholder="password">
<button>Sign in</button>
<p id="err"></p>
</form>
<script>
document.getElementById("login").onsubmit = async (e) => {
  e.preventDefault();
  const f = new FormData(e.target);
  const res = await fetch("/api/auth/login", {method: "POST", headers: {"Content-Type": "application/json"},
    body: JSON.stringify({username: f.get("username"), password: f.get("password")})});
  if (res.ok) { location.href = "/"; } else { document.getElementById("err").textContent = (await res.json()).error; }
};
</script>
</body></html>`

type AuthHandler struct {
	auth   *service.AuthService
	secure bool
}

func NewAuthHandler(auth *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{auth: auth, secure: secureCookie}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginPage))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.LoginAttempts.WithLabelValues("malformed").Inc()
		c.Error(apperrors.NewInvalidRequest("username and password are required"))
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			metrics.LoginAttempts.WithLabelValues("rejected").Inc()
			c.Error(apperrors.New(apperrors.ErrAuthFailed, "invalid credentials", nil))
			return
		}
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		c.Error(apperrors.New(apperrors.ErrInternal, "login failed", err))
		return
	}

	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	logger.Info("login", "user", req.Username, "client_ip", c.ClientIP())
	middleware.SetSessionCookie(c, token, h.auth.TTL(), h.secure)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(middleware.SessionCookieName); err == nil && token != "" {
		if err := h.auth.Logout(c.Request.Context(), token); err != nil {
			logger.Warn("logout: revoke session failed", "error", err)
		}
	}
	middleware.ClearSessionCookie(c, h.secure)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
