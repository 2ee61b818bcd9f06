package domain

import (
	"regexp"
	"strings"
	"time"
)

// Structured failure codes understood by the client.
const (
	CodeAccountSuspended   = "ACCOUNT_SUSPENDED"
	CodeAccountBanned      = "ACCOUNT_BANNED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeForbidden          = "FORBIDDEN"
	CodeValidation         = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeInternal           = "INTERNAL"
)

// FailurePayload is the error body returned by the remote API. Error is the
// legacy field some endpoints still use instead of Message.
type FailurePayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Until   string `json:"until,omitempty"`
}

// Text returns whichever human-readable message the payload carries.
func (p FailurePayload) Text() string {
	if p.Message != "" {
		return p.Message
	}
	return p.Error
}

// Textual suspension markers, checked only when no structured code is present.
// Permanent markers are matched first since they contain the temporary ones.
var (
	permanentMarkers  = []string{"영구 정지", "permanently suspended", "permanent_suspension", "banned"}
	suspensionMarkers = []string{"정지", "suspended"}
)

const legacyUntilLayout = "2006년 01월 02일 15시 04분"

var legacyUntilPattern = regexp.MustCompile(`\d{4}년 \d{2}월 \d{2}일 \d{2}시 \d{2}분`)

// TranslateFailure turns a non-2xx response into a typed error. It is the only
// place in the client that looks at remote failure payloads. Suspensions come
// back as *SuspendedError, everything else as *APIError.
func TranslateFailure(status int, p FailurePayload) error {
	switch p.Code {
	case CodeAccountBanned:
		return suspendedFrom(true, p)
	case CodeAccountSuspended:
		return suspendedFrom(false, p)
	case "":
		if permanent, ok := matchMarkers(p.Text()); ok {
			return suspendedFrom(permanent, p)
		}
	}
	return &APIError{StatusCode: status, Code: p.Code, Message: p.Text()}
}

func matchMarkers(text string) (permanent bool, suspended bool) {
	if text == "" {
		return false, false
	}
	lower := strings.ToLower(text)
	for _, m := range permanentMarkers {
		if strings.Contains(lower, m) {
			return true, true
		}
	}
	for _, m := range suspensionMarkers {
		if strings.Contains(lower, m) {
			return false, true
		}
	}
	return false, false
}

func suspendedFrom(permanent bool, p FailurePayload) *SuspendedError {
	e := &SuspendedError{Permanent: permanent, Reason: p.Reason, Message: p.Text()}
	if !permanent {
		e.Until = parseUntil(p)
	}
	return e
}

func parseUntil(p FailurePayload) time.Time {
	if p.Until != "" {
		if t, err := time.Parse(time.RFC3339, p.Until); err == nil {
			return t
		}
	}
	if m := legacyUntilPattern.FindString(p.Text()); m != "" {
		if t, err := time.ParseInLocation(legacyUntilLayout, m, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
