package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tup-vms/vms-backend/internal/models"
)

func TestInsertLog(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScanRepository(db)

	t.Run("Success", func(t *testing.T) {
		log := &models.Log{
			SubjectID:    uuid.New(),
			CredentialID: uuid.New(),
			Kind:         models.KindPresence,
			Date:         time.Now(),
			TimeIn:       models.NewNullTime(time.Now()),
			Status:       models.LogStatusInTUP,
			ScannedBy:    uuid.New(),
		}

		mock.ExpectExec(`INSERT INTO logs`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.InsertLog(log)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, log.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Open Record", func(t *testing.T) {
		log := &models.Log{
			SubjectID:    uuid.New(),
			CredentialID: uuid.New(),
			Kind:         models.KindPresence,
			Date:         time.Now(),
			Status:       models.LogStatusInTUP,
			ScannedBy:    uuid.New(),
		}

		mock.ExpectExec(`INSERT INTO logs`).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.InsertLog(log)
		assert.ErrorIs(t, err, ErrDuplicateOpenRecord)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		log := &models.Log{
			SubjectID:    uuid.New(),
			CredentialID: uuid.New(),
			Kind:         models.KindPresence,
			Date:         time.Now(),
			Status:       models.LogStatusInTUP,
			ScannedBy:    uuid.New(),
		}

		mock.ExpectExec(`INSERT INTO logs`).
			WillReturnError(fmt.Errorf("connection reset"))

		err := repo.InsertLog(log)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrDuplicateOpenRecord)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCloseLog(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScanRepository(db)

	t.Run("Success", func(t *testing.T) {
		logID := uuid.New()
		timeOut := time.Now()

		mock.ExpectExec(`UPDATE logs`).
			WithArgs(timeOut, models.LogStatusCheckedOut, logID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.CloseLog(logID, timeOut)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Closed", func(t *testing.T) {
		logID := uuid.New()
		timeOut := time.Now()

		mock.ExpectExec(`UPDATE logs`).
			WithArgs(timeOut, models.LogStatusCheckedOut, logID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.CloseLog(logID, timeOut)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "open log not found")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReopenLog(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScanRepository(db)

	logID := uuid.New()
	timeIn := time.Now()

	mock.ExpectExec(`UPDATE logs`).
		WithArgs(timeIn, models.LogStatusInTUP, logID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ReopenLog(logID, timeIn)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAttendanceWithLog(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScanRepository(db)

	t.Run("Success", func(t *testing.T) {
		att := &models.Attendance{
			StaffID:   uuid.New(),
			Date:      time.Now(),
			TimeIn:    time.Now(),
			ScannedBy: uuid.New(),
		}
		log := &models.Log{
			SubjectID:    att.StaffID,
			CredentialID: uuid.New(),
			Kind:         models.KindAttendance,
			Date:         att.Date,
			TimeIn:       models.NewNullTime(att.TimeIn),
			Status:       models.LogStatusInTUP,
			Reason:       models.NewNullString(models.ReasonAttendance),
			ScannedBy:    att.ScannedBy,
		}

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO attendance`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO logs`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.CreateAttendanceWithLog(att, log)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, att.ID)
		assert.NotEqual(t, uuid.Nil, log.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Companion Log Failure Rolls Back", func(t *testing.T) {
		att := &models.Attendance{
			StaffID:   uuid.New(),
			Date:      time.Now(),
			TimeIn:    time.Now(),
			ScannedBy: uuid.New(),
		}
		log := &models.Log{
			SubjectID:    att.StaffID,
			CredentialID: uuid.New(),
			Kind:         models.KindAttendance,
			Date:         att.Date,
			Status:       models.LogStatusInTUP,
			ScannedBy:    att.ScannedBy,
		}

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO attendance`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`INSERT INTO logs`).
			WillReturnError(fmt.Errorf("connection reset"))
		mock.ExpectRollback()

		err := repo.CreateAttendanceWithLog(att, log)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert companion log")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate Open Attendance", func(t *testing.T) {
		att := &models.Attendance{
			StaffID:   uuid.New(),
			Date:      time.Now(),
			TimeIn:    time.Now(),
			ScannedBy: uuid.New(),
		}
		log := &models.Log{
			SubjectID:    att.StaffID,
			CredentialID: uuid.New(),
			Kind:         models.KindAttendance,
			Date:         att.Date,
			Status:       models.LogStatusInTUP,
			ScannedBy:    att.ScannedBy,
		}

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO attendance`).
			WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		err := repo.CreateAttendanceWithLog(att, log)
		assert.ErrorIs(t, err, ErrDuplicateOpenRecord)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCloseAttendanceWithLog(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScanRepository(db)

	t.Run("Success", func(t *testing.T) {
		attendanceID := uuid.New()
		logID := uuid.New()
		timeOut := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE attendance`).
			WithArgs(timeOut, 8.5, attendanceID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE logs`).
			WithArgs(timeOut, models.LogStatusCheckedOut, logID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CloseAttendanceWithLog(attendanceID, logID, timeOut, 8.5)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Open Attendance", func(t *testing.T) {
		attendanceID := uuid.New()
		logID := uuid.New()
		timeOut := time.Now()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE attendance`).
			WithArgs(timeOut, 8.5, attendanceID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.CloseAttendanceWithLog(attendanceID, logID, timeOut, 8.5)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "open attendance not found")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
