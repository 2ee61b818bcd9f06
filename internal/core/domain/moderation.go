package domain

import "time"

// ModerationKind enumerates the administrator actions.
type ModerationKind string

const (
	ActionSuspend       ModerationKind = "SUSPEND"
	ActionUnsuspend     ModerationKind = "UNSUSPEND"
	ActionChangeRole    ModerationKind = "CHANGE_ROLE"
	ActionDeleteContent ModerationKind = "DELETE_CONTENT"
	ActionDeleteAccount ModerationKind = "DELETE_ACCOUNT"
)

// ContentKind identifies a kind of user-generated content.
type ContentKind string

const (
	ContentPost    ContentKind = "post"
	ContentComment ContentKind = "comment"
)

// Valid reports whether k is a known content kind.
func (k ContentKind) Valid() bool {
	return k == ContentPost || k == ContentComment
}

// PermanentMinutes is the wire value of a permanent suspension duration.
const PermanentMinutes = -1

// SuspensionDuration is either a positive number of minutes or permanent.
type SuspensionDuration struct {
	Minutes   int
	Permanent bool
}

// Permanent is the duration of a ban with no automatic expiry.
var Permanent = SuspensionDuration{Permanent: true}

// Minutes returns a temporary suspension duration.
func Minutes(m int) SuspensionDuration {
	return SuspensionDuration{Minutes: m}
}

// WireMinutes encodes the duration for the suspend endpoint.
func (d SuspensionDuration) WireMinutes() int {
	if d.Permanent {
		return PermanentMinutes
	}
	return d.Minutes
}

// DurationFromWire decodes the suspend endpoint's durationMinutes field.
func DurationFromWire(minutes int) SuspensionDuration {
	if minutes == PermanentMinutes {
		return Permanent
	}
	return Minutes(minutes)
}

// EndTime returns the end of a suspension starting at start, or the zero time
// for a permanent one.
func (d SuspensionDuration) EndTime(start time.Time) time.Time {
	if d.Permanent {
		return time.Time{}
	}
	return start.Add(time.Duration(d.Minutes) * time.Minute)
}

// ModerationAction is an administrator action as issued by the client. It is
// not retained beyond its acknowledgement.
type ModerationAction struct {
	Kind            ModerationKind
	ActorAccountID  int64
	TargetAccountID int64
	TargetContent   *ContentRef
	Payload         map[string]any
	Timestamp       time.Time
}

// ContentRef points at a post or comment.
type ContentRef struct {
	Kind ContentKind
	ID   int64
}
