package domain

import "time"

// SuspensionRecord is a server-owned restriction on an account. A zero EndTime
// means the suspension is permanent.
type SuspensionRecord struct {
	SubjectAccountID int64     `json:"subjectAccountId" bson:"subject_account_id"`
	Reason           string    `json:"reason" bson:"reason"`
	StartTime        time.Time `json:"startTime" bson:"start_time"`
	EndTime          time.Time `json:"endTime,omitempty" bson:"end_time,omitempty"`
	IssuedBy         int64     `json:"issuedBy" bson:"issued_by"`
	Active           bool      `json:"active" bson:"active"`
}

// IsPermanent reports whether the record has no automatic expiry.
func (r SuspensionRecord) IsPermanent() bool {
	return r.EndTime.IsZero()
}

// SuspensionStatus is the effective status computed by Classify.
type SuspensionStatus string

const (
	StatusActive             SuspensionStatus = "ACTIVE"
	StatusSuspendedTemporary SuspensionStatus = "SUSPENDED_TEMP"
	StatusSuspendedPermanent SuspensionStatus = "SUSPENDED_PERMANENT"
)

// Classification is the outcome of Classify. Remaining is only set for
// StatusSuspendedTemporary.
type Classification struct {
	Status    SuspensionStatus
	Remaining time.Duration
}

// Blocking reports whether the classification prevents authentication.
func (c Classification) Blocking() bool {
	return c.Status != StatusActive
}

// Classify computes the effective suspension status of record at now.
// A temporary record whose end time has been reached is treated as lapsed
// (StatusActive); lifting it remains the server's business.
func Classify(record *SuspensionRecord, now time.Time) Classification {
	if record == nil || !record.Active {
		return Classification{Status: StatusActive}
	}
	if record.IsPermanent() {
		return Classification{Status: StatusSuspendedPermanent}
	}
	if record.EndTime.After(now) {
		return Classification{Status: StatusSuspendedTemporary, Remaining: record.EndTime.Sub(now)}
	}
	return Classification{Status: StatusActive}
}

// RecordStatus is the stored-state view of a record, used for display.
type RecordStatus string

const (
	RecordActive             RecordStatus = "ACTIVE"
	RecordSuspended          RecordStatus = "SUSPENDED"
	RecordExpiredButUnlifted RecordStatus = "EXPIRED_BUT_UNLIFTED"
)

// DeriveStatus distinguishes a lapsed-but-still-active record from one the
// server has actually lifted. Classify collapses both into StatusActive.
func DeriveStatus(record *SuspensionRecord, now time.Time) RecordStatus {
	if record == nil || !record.Active {
		return RecordActive
	}
	if record.IsPermanent() || record.EndTime.After(now) {
		return RecordSuspended
	}
	return RecordExpiredButUnlifted
}
