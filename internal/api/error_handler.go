package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/communityboard/board-client/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Error
// repeats Message for clients that still read the legacy field.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Until   string `json:"until,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and failure code.
//   - Reports suspensions with their code, reason and end time.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var suspended *domain.SuspendedError
	if errors.As(err, &suspended) {
		body := errorResponse{
			Code:    domain.CodeAccountSuspended,
			Message: suspended.Message,
			Error:   suspended.Message,
			Reason:  suspended.Reason,
		}
		if suspended.Permanent {
			body.Code = domain.CodeAccountBanned
		} else if !suspended.Until.IsZero() {
			body.Until = suspended.Until.UTC().Format(time.RFC3339)
		}
		return http.StatusUnauthorized, body
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Code: codeForStatus(he.Code), Message: fmt.Sprintf("%v", he.Message)}
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Code: domain.CodeInvalidCredentials, Message: "아이디 또는 비밀번호가 올바르지 않습니다."}
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorResponse{Code: domain.CodeUnauthenticated, Message: "invalid token"}
	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusForbidden, errorResponse{Code: domain.CodeForbidden, Message: "administrator role required"}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, errorResponse{Code: domain.CodeValidation, Message: err.Error()}
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, errorResponse{Code: domain.CodeNotFound, Message: "account not found"}
	case errors.Is(err, domain.ErrContentNotFound):
		return http.StatusNotFound, errorResponse{Code: domain.CodeNotFound, Message: "content not found"}
	case errors.Is(err, domain.ErrAccountExists):
		return http.StatusConflict, errorResponse{Code: domain.CodeConflict, Message: "account already exists"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Code: domain.CodeInternal, Message: "internal server error"}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return domain.CodeValidation
	case http.StatusUnauthorized:
		return domain.CodeUnauthenticated
	case http.StatusForbidden:
		return domain.CodeForbidden
	case http.StatusNotFound:
		return domain.CodeNotFound
	case http.StatusConflict:
		return domain.CodeConflict
	default:
		return domain.CodeInternal
	}
}
