package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tup-vms/vms-backend/internal/models"
)

// LogRepository handles activity/visit log database operations
type LogRepository struct {
	db DB
}

// NewLogRepository creates a new log repository
func NewLogRepository(db DB) *LogRepository {
	return &LogRepository{
		db: db,
	}
}

const logColumns = `id, subject_id, counterpart_id, credential_id, kind, date,
		       time_in, time_out, status, reason, approved_by, scanned_by,
		       scanned_with, created_at`

// FindOpenByKind returns the subject's open log of the given kind since day,
// or nil when none exists
func (r *LogRepository) FindOpenByKind(subjectID uuid.UUID, day time.Time, kind models.LogKind) (*models.Log, error) {
	var log models.Log

	query := `
		SELECT ` + logColumns + `
		FROM logs
		WHERE subject_id = $1 AND kind = $2 AND date >= $3 AND time_out IS NULL
		ORDER BY date DESC
		LIMIT 1
	`

	err := r.db.Get(&log, query, subjectID, kind, day)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open log: %w", err)
	}

	return &log, nil
}

// FindReturnable returns the subject's most recent closed break/go-out log
// whose checkout happened today, i.e. a session that can be reopened by a
// return check-in. Returns nil when none exists.
func (r *LogRepository) FindReturnable(subjectID uuid.UUID, day time.Time) (*models.Log, error) {
	var log models.Log

	query := `
		SELECT ` + logColumns + `
		FROM logs
		WHERE subject_id = $1
		  AND kind IN ($2, $3)
		  AND status = $4
		  AND time_out >= $5
		ORDER BY time_out DESC
		LIMIT 1
	`

	err := r.db.Get(&log, query, subjectID, models.KindBreak, models.KindGoOut, models.LogStatusCheckedOut, day)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find returnable log: %w", err)
	}

	return &log, nil
}

// FindOpenTransaction returns today's half-open transaction log between actor
// and counterpart, or nil when none exists
func (r *LogRepository) FindOpenTransaction(actorID, counterpartID uuid.UUID, day time.Time) (*models.Log, error) {
	var log models.Log

	query := `
		SELECT ` + logColumns + `
		FROM logs
		WHERE subject_id = $1
		  AND counterpart_id = $2
		  AND kind = $3
		  AND date >= $4
		  AND time_out IS NULL
		ORDER BY date DESC
		LIMIT 1
	`

	err := r.db.Get(&log, query, actorID, counterpartID, models.KindTransaction, day)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open transaction log: %w", err)
	}

	return &log, nil
}

// FindTransactionMissingTimeIn returns today's transaction log between actor
// and counterpart that was opened by a checkout scan and still lacks its
// time_in, or nil when none exists
func (r *LogRepository) FindTransactionMissingTimeIn(actorID, counterpartID uuid.UUID, day time.Time) (*models.Log, error) {
	var log models.Log

	query := `
		SELECT ` + logColumns + `
		FROM logs
		WHERE subject_id = $1
		  AND counterpart_id = $2
		  AND kind = $3
		  AND date >= $4
		  AND time_in IS NULL
		ORDER BY date DESC
		LIMIT 1
	`

	err := r.db.Get(&log, query, actorID, counterpartID, models.KindTransaction, day)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find half-open transaction log: %w", err)
	}

	return &log, nil
}

// ListLogs retrieves logs in a date range, newest first, with pagination.
// Zero-valued bounds are ignored.
func (r *LogRepository) ListLogs(from, to time.Time, limit, offset int) ([]*models.Log, error) {
	var logs []*models.Log

	query := `
		SELECT ` + logColumns + `
		FROM logs
		WHERE ($1::timestamptz IS NULL OR date >= $1)
		  AND ($2::timestamptz IS NULL OR date <= $2)
		ORDER BY date DESC
		LIMIT $3 OFFSET $4
	`

	err := r.db.Select(&logs, query, nullableTime(from), nullableTime(to), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}

	return logs, nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
