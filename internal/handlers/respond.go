package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/club_ledger/internal/apperrors"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// statusFor maps an error's kind to an HTTP status.
func statusFor(err error) int {
	switch apperrors.KindOf(err) {
	case apperrors.ErrValidation:
		return http.StatusBadRequest
	case apperrors.ErrNotFound:
		return http.StatusNotFound
	case apperrors.ErrDuplicate, apperrors.ErrConflict:
		return http.StatusConflict
	case apperrors.ErrInvariant:
		return http.StatusUnprocessableEntity
	case apperrors.ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status of its kind. Internal failures are
// logged and their detail withheld from the caller.
func respondError(c *gin.Context, logger *slog.Logger, err error, failure string) {
	status := statusFor(err)
	switch {
	case status == http.StatusInternalServerError:
		logger.Error(failure, slog.String("error", err.Error()))
		c.JSON(status, ErrorResponse{Error: failure})
		return
	case errors.Is(err, apperrors.ErrInvariant):
		logger.Error(failure, slog.String("error", err.Error()), slog.String("code", apperrors.Code(err)))
	default:
		logger.Warn(failure, slog.String("error", err.Error()), slog.String("code", apperrors.Code(err)))
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: apperrors.Code(err)})
}

// bindError reports a malformed body or query.
func bindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error(), Code: "VALIDATION"})
}

// principalOrAbort returns the authenticated caller or answers 401.
func principalOrAbort(c *gin.Context, logger *slog.Logger) (middleware.Principal, bool) {
	p, ok := middleware.GetPrincipalFromContext(c)
	if !ok {
		logger.Error("Principal not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
	}
	return p, ok
}

// dateParam parses a YYYY-MM-DD query parameter, defaulting to today in UTC.
func dateParam(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse(time.DateOnly, raw)
}
