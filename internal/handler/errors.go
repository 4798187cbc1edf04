package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoPolymarket/clawdash/internal/model"
	"github.com/GoPolymarket/clawdash/internal/pkg/apperrors"
	"github.com/GoPolymarket/clawdash/internal/upstream"
	"github.com/gin-gonic/gin"
)

// toAppError maps service and upstream failures onto the error envelope:
// offline 503, upstream 502, unknown owner 404, anything else 500.
func toAppError(err error, ownerID string) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case upstream.IsOffline(err):
		return apperrors.NewOffline(ownerID, err)
	case errors.Is(err, model.ErrUnknownOwner):
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("unknown owner %s", ownerID), err)
	case errors.Is(err, model.ErrWalletNotConfigured):
		return apperrors.New(apperrors.ErrNotFound, fmt.Sprintf("owner %s has no wallet address", ownerID), err)
	}

	var upErr *upstream.Error
	if errors.As(err, &upErr) {
		// upErr.Error() already carries the cause.
		return apperrors.NewUpstream(upErr.Error(), nil)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewUpstream("upstream timed out", err)
	}
	return apperrors.New(apperrors.ErrInternal, "aggregation failed", err)
}

func fail(c *gin.Context, err error, ownerID string) {
	c.Error(toAppError(err, ownerID))
	c.Abort()
}
