package models

import (
	"time"

	"github.com/google/uuid"
)

// LogKind tags a log row with the event variant it belongs to, replacing the
// nullable-field inspection the row would otherwise need at every call site.
type LogKind string

const (
	KindPresence    LogKind = "presence"    // student/visitor in/out tracking
	KindAttendance  LogKind = "attendance"  // staff attendance session companion
	KindBreak       LogKind = "break"       // staff break
	KindGoOut       LogKind = "go_out"      // staff leaving campus mid-session
	KindTransaction LogKind = "transaction" // actor-to-staff transaction
)

// Log statuses as they appear on the wire
const (
	LogStatusInTUP       = "In TUP"
	LogStatusCheckedOut  = "Checked Out"
	LogStatusTransaction = "Transaction"
)

// Scan reasons as submitted by operators
const (
	ReasonAttendance  = "attendance"
	ReasonBreak       = "break"
	ReasonGoOut       = "go out"
	ReasonTransaction = "Transaction"
)

// KindForReason maps a staff scan reason to the log kind recorded for it.
func KindForReason(reason string) (LogKind, bool) {
	switch reason {
	case ReasonAttendance:
		return KindAttendance, true
	case ReasonBreak:
		return KindBreak, true
	case ReasonGoOut:
		return KindGoOut, true
	case ReasonTransaction:
		return KindTransaction, true
	}
	return "", false
}

// Log is one row of the activity/visit journal. SubjectID is the scanned
// subject for presence/attendance/break/go_out rows; for transaction rows it
// is the initiating actor and CounterpartID holds the scanned staff member.
type Log struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	SubjectID     uuid.UUID     `json:"subject_id" db:"subject_id"`
	CounterpartID uuid.NullUUID `json:"counterpart_id,omitempty" db:"counterpart_id"`
	CredentialID  uuid.UUID     `json:"credential_id" db:"credential_id"`
	Kind          LogKind       `json:"kind" db:"kind"`
	Date          time.Time     `json:"date" db:"date"`
	TimeIn        NullTime      `json:"time_in,omitempty" db:"time_in"`
	TimeOut       NullTime      `json:"time_out,omitempty" db:"time_out"`
	Status        string        `json:"status" db:"status"`
	Reason        NullString    `json:"reason,omitempty" db:"reason"`
	ApprovedBy    NullString    `json:"approved_by,omitempty" db:"approved_by"`
	ScannedBy     uuid.UUID     `json:"scanned_by" db:"scanned_by"`
	ScannedWith   NullString    `json:"scanned_with,omitempty" db:"scanned_with"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// Open reports whether the row represents an in-progress session
func (l *Log) Open() bool {
	return !l.TimeOut.Valid
}
