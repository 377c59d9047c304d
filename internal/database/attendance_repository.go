package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tup-vms/vms-backend/internal/models"
)

// AttendanceRepository handles attendance ledger database operations
type AttendanceRepository struct {
	db DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db DB) *AttendanceRepository {
	return &AttendanceRepository{
		db: db,
	}
}

const attendanceColumns = `id, staff_id, date, time_in, time_out, total_hours, scanned_by, created_at`

// FindOpenForStaff returns the staff member's open attendance session since
// day, or nil when none exists
func (r *AttendanceRepository) FindOpenForStaff(staffID uuid.UUID, day time.Time) (*models.Attendance, error) {
	var att models.Attendance

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE staff_id = $1 AND date >= $2 AND time_out IS NULL
		ORDER BY date DESC
		LIMIT 1
	`

	err := r.db.Get(&att, query, staffID, day)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open attendance: %w", err)
	}

	return &att, nil
}

// ListAttendance retrieves attendance rows in a date range, newest first,
// with pagination. Zero-valued bounds are ignored.
func (r *AttendanceRepository) ListAttendance(from, to time.Time, limit, offset int) ([]*models.Attendance, error) {
	var rows []*models.Attendance

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		  AND ($2::timestamptz IS NULL OR date <= $2)
		ORDER BY date DESC
		LIMIT $3 OFFSET $4
	`

	err := r.db.Select(&rows, query, nullableTime(from), nullableTime(to), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	return rows, nil
}
