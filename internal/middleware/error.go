package middleware

import (
	"errors"

	"github.com/GoPolymarket/clawdash/internal/pkg/apperrors"
	"github.com/GoPolymarket/clawdash/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error pushed with c.Error as the JSON
// envelope {"error", "code", "offline"}.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			appErr = apperrors.New(apperrors.ErrInternal, err.Error(), err)
		}

		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"code", appErr.Type,
			"status", appErr.HTTPStatus,
			"client_ip", c.ClientIP(),
		}
		if owner := c.Param("owner"); owner != "" {
			logFields = append(logFields, "owner", owner)
		}

		switch {
		case appErr.HTTPStatus >= 500 && appErr.Type != apperrors.ErrOwnerOffline:
			logger.LogError(c.Request.Context(), appErr, "request failed", logFields...)
		case appErr.Type == apperrors.ErrOwnerOffline:
			logger.Info(appErr.Message, logFields...)
		default:
			logger.Warn(appErr.Message, logFields...)
		}

		AddAuditContext(c, "error", appErr.Error())
		if c.Writer.Written() {
			return
		}
		c.JSON(appErr.HTTPStatus, appErr)
	}
}
