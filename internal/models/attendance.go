package models

import (
	"time"

	"github.com/google/uuid"
)

// Attendance is one staff work session: opened by an "attendance" check-in,
// closed by the matching checkout. TotalHours is computed once at close time
// and never recomputed.
type Attendance struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	StaffID    uuid.UUID   `json:"staff_id" db:"staff_id"`
	Date       time.Time   `json:"date" db:"date"`
	TimeIn     time.Time   `json:"time_in" db:"time_in"`
	TimeOut    NullTime    `json:"time_out,omitempty" db:"time_out"`
	TotalHours NullFloat64 `json:"total_hours,omitempty" db:"total_hours"`
	ScannedBy  uuid.UUID   `json:"scanned_by" db:"scanned_by"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

// Open reports whether the session is still in progress
func (a *Attendance) Open() bool {
	return !a.TimeOut.Valid
}
