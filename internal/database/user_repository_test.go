package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tup-vms/vms-backend/internal/models"
)

var userTestColumns = []string{
	"id", "first_name", "surname", "birthdate", "role", "staff_type",
	"photo_url", "email", "password_hash", "status", "created_at",
}

func TestCreateUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	t.Run("Success", func(t *testing.T) {
		user := &models.User{
			FirstName:    "Maria",
			Surname:      "Santos",
			Birthdate:    time.Date(1999, 4, 12, 0, 0, 0, 0, time.UTC),
			Role:         models.RoleStudent,
			PhotoURL:     "https://cdn.example.com/maria.jpg",
			Email:        "maria@example.com",
			PasswordHash: "hashed",
		}

		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(
				sqlmock.AnyArg(), user.FirstName, user.Surname, user.Birthdate,
				user.Role, user.StaffType, user.PhotoURL, user.Email,
				user.PasswordHash, models.UserStatusActive, sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.CreateUser(user)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, models.UserStatusActive, user.Status)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		user := &models.User{
			FirstName: "Maria",
			Surname:   "Santos",
			Role:      models.RoleStudent,
			Email:     "maria@example.com",
		}

		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(fmt.Errorf("database error"))

		err := repo.CreateUser(user)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetUserByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(userTestColumns).AddRow(
				userID, "Jose", "Reyes", now.AddDate(-30, 0, 0), "Staff", "Maintenance",
				"https://cdn.example.com/jose.jpg", "jose@example.com", "hashed",
				"Active", now,
			))

		user, err := repo.GetUserByID(userID)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, models.RoleStaff, user.Role)
		assert.True(t, user.IsMaintenanceStaff())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(userTestColumns))

		user, err := repo.GetUserByID(userID)
		require.NoError(t, err)
		assert.Nil(t, user)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetUserByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email`).
			WithArgs("ana@example.com").
			WillReturnRows(sqlmock.NewRows(userTestColumns).AddRow(
				userID, "Ana", "Cruz", now.AddDate(-25, 0, 0), "Visitor", nil,
				"https://cdn.example.com/ana.jpg", "ana@example.com", "hashed",
				"Active", now,
			))

		user, err := repo.GetUserByEmail("ana@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, models.RoleVisitor, user.Role)
		assert.False(t, user.StaffType.Valid)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email`).
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows(userTestColumns))

		user, err := repo.GetUserByEmail("nobody@example.com")
		require.NoError(t, err)
		assert.Nil(t, user)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateUserStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users`).
			WithArgs(models.UserStatusInTUP, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateUserStatus(userID, models.UserStatusInTUP)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Status", func(t *testing.T) {
		err := repo.UpdateUserStatus(uuid.New(), "Sleeping")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid status")
	})

	t.Run("Not Found", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectExec(`UPDATE users`).
			WithArgs(models.UserStatusInactive, userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateUserStatus(userID, models.UserStatusInactive)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "user not found")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListUsers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM users ORDER BY created_at`).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(userTestColumns).
			AddRow(uuid.New(), "Maria", "Santos", now, "Student", nil,
				"", "maria@example.com", "hashed", "Active", now).
			AddRow(uuid.New(), "Jose", "Reyes", now, "Staff", "Security",
				"", "jose@example.com", "hashed", "Active", now))

	users, err := repo.ListUsers(10, 0)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}
