package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrSuspended            = errors.New("account suspended")
	ErrSuspendedTemporary   = errors.New("account temporarily suspended")
	ErrSuspendedPermanent   = errors.New("account permanently suspended")
	ErrAuthorization        = errors.New("administrator role required")
	ErrValidation           = errors.New("validation failed")
	ErrNetwork              = errors.New("network error")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrConfirmationDeclined = errors.New("action not confirmed")
	ErrForcedLogout         = errors.New("session ended by forced logout")
	ErrKeyNotFound          = errors.New("key not found")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountExists        = errors.New("account already exists")
	ErrContentNotFound      = errors.New("content not found")
)

// SuspendedError describes a suspension reported by the remote authority.
// errors.Is matches ErrSuspended and, depending on Permanent, either
// ErrSuspendedPermanent or ErrSuspendedTemporary.
type SuspendedError struct {
	Permanent bool
	Reason    string
	Until     time.Time
	Message   string
}

func (e *SuspendedError) Error() string {
	if e.Permanent {
		if e.Reason == "" {
			return ErrSuspendedPermanent.Error()
		}
		return fmt.Sprintf("%s: %s", ErrSuspendedPermanent, e.Reason)
	}
	msg := ErrSuspendedTemporary.Error()
	if !e.Until.IsZero() {
		msg += " until " + e.Until.Format(time.RFC3339)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *SuspendedError) Is(target error) bool {
	switch target {
	case ErrSuspended:
		return true
	case ErrSuspendedPermanent:
		return e.Permanent
	case ErrSuspendedTemporary:
		return !e.Permanent
	}
	return false
}

// Classification returns the client-side view of the suspension at now.
func (e *SuspendedError) Classification(now time.Time) Classification {
	if e.Permanent {
		return Classification{Status: StatusSuspendedPermanent}
	}
	return Classify(&SuspensionRecord{Active: true, EndTime: e.Until, Reason: e.Reason}, now)
}

// APIError is a non-2xx response that carried no suspension signal. Its
// content is passed through as received.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote api: status %d: %s", e.StatusCode, e.Message)
}
