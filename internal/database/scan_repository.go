package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/tup-vms/vms-backend/internal/models"
)

// ErrDuplicateOpenRecord is returned when an insert collides with the
// open-record uniqueness constraints (one open session per subject per day).
// Concurrent scans that slip past the service-level checks land here.
var ErrDuplicateOpenRecord = errors.New("duplicate open record")

// ScanRepository performs the write-side transitions of the scan state
// machine. Branches that touch more than one row run in a single database
// transaction so a scan can never leave a half-written Attendance/Log pair.
type ScanRepository struct {
	db DB
}

// NewScanRepository creates a new scan repository
func NewScanRepository(db DB) *ScanRepository {
	return &ScanRepository{
		db: db,
	}
}

// InsertLog writes a new log row
func (r *ScanRepository) InsertLog(log *models.Log) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	log.CreatedAt = time.Now()

	query := `
		INSERT INTO logs (
			id, subject_id, counterpart_id, credential_id, kind, date,
			time_in, time_out, status, reason, approved_by, scanned_by,
			scanned_with, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.Exec(
		query,
		log.ID,
		log.SubjectID,
		log.CounterpartID,
		log.CredentialID,
		log.Kind,
		log.Date,
		log.TimeIn,
		log.TimeOut,
		log.Status,
		log.Reason,
		log.ApprovedBy,
		log.ScannedBy,
		log.ScannedWith,
		log.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateOpenRecord
		}
		return fmt.Errorf("failed to insert log: %w", err)
	}

	return nil
}

// CloseLog stamps time_out on an open log and marks it checked out
func (r *ScanRepository) CloseLog(id uuid.UUID, timeOut time.Time) error {
	query := `
		UPDATE logs
		SET time_out = $1,
		    status = $2
		WHERE id = $3 AND time_out IS NULL
	`

	result, err := r.db.Exec(query, timeOut, models.LogStatusCheckedOut, id)
	if err != nil {
		return fmt.Errorf("failed to close log: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("open log not found")
	}

	return nil
}

// ReopenLog turns a closed break/go-out log back into an open session
func (r *ScanRepository) ReopenLog(id uuid.UUID, timeIn time.Time) error {
	query := `
		UPDATE logs
		SET time_in = $1,
		    time_out = NULL,
		    status = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, timeIn, models.LogStatusInTUP, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateOpenRecord
		}
		return fmt.Errorf("failed to reopen log: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("log not found")
	}

	return nil
}

// SetTransactionTimeIn backfills time_in on a half-open transaction log
func (r *ScanRepository) SetTransactionTimeIn(id uuid.UUID, timeIn time.Time) error {
	query := `
		UPDATE logs
		SET time_in = $1
		WHERE id = $2 AND time_in IS NULL
	`

	result, err := r.db.Exec(query, timeIn, id)
	if err != nil {
		return fmt.Errorf("failed to set transaction time in: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("half-open transaction log not found")
	}

	return nil
}

// SetTransactionTimeOut backfills time_out on a half-open transaction log
func (r *ScanRepository) SetTransactionTimeOut(id uuid.UUID, timeOut time.Time) error {
	query := `
		UPDATE logs
		SET time_out = $1
		WHERE id = $2 AND time_out IS NULL
	`

	result, err := r.db.Exec(query, timeOut, id)
	if err != nil {
		return fmt.Errorf("failed to set transaction time out: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("half-open transaction log not found")
	}

	return nil
}

// CreateAttendanceWithLog opens a staff attendance session and its companion
// log in one transaction
func (r *ScanRepository) CreateAttendanceWithLog(att *models.Attendance, log *models.Log) error {
	if att.ID == uuid.Nil {
		att.ID = uuid.New()
	}
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	att.CreatedAt = time.Now()
	log.CreatedAt = att.CreatedAt

	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO attendance (id, staff_id, date, time_in, time_out, total_hours, scanned_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, att.ID, att.StaffID, att.Date, att.TimeIn, att.TimeOut, att.TotalHours, att.ScannedBy, att.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateOpenRecord
		}
		return fmt.Errorf("failed to insert attendance: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO logs (
			id, subject_id, counterpart_id, credential_id, kind, date,
			time_in, time_out, status, reason, approved_by, scanned_by,
			scanned_with, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, log.ID, log.SubjectID, log.CounterpartID, log.CredentialID, log.Kind, log.Date,
		log.TimeIn, log.TimeOut, log.Status, log.Reason, log.ApprovedBy, log.ScannedBy,
		log.ScannedWith, log.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateOpenRecord
		}
		return fmt.Errorf("failed to insert companion log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit attendance check-in: %w", err)
	}

	return nil
}

// CloseAttendanceWithLog closes an attendance session and its companion log
// in one transaction, computing total hours at close time
func (r *ScanRepository) CloseAttendanceWithLog(attendanceID, logID uuid.UUID, timeOut time.Time, totalHours float64) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE attendance
		SET time_out = $1,
		    total_hours = $2
		WHERE id = $3 AND time_out IS NULL
	`, timeOut, totalHours, attendanceID)
	if err != nil {
		return fmt.Errorf("failed to close attendance: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("open attendance not found")
	}

	result, err = tx.Exec(`
		UPDATE logs
		SET time_out = $1,
		    status = $2
		WHERE id = $3 AND time_out IS NULL
	`, timeOut, models.LogStatusCheckedOut, logID)
	if err != nil {
		return fmt.Errorf("failed to close companion log: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("open companion log not found")
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit attendance checkout: %w", err)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
