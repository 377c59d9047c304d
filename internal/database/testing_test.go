package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// logTestColumns is the column order of every SELECT over logs
var logTestColumns = []string{
	"id", "subject_id", "counterpart_id", "credential_id", "kind", "date",
	"time_in", "time_out", "status", "reason", "approved_by", "scanned_by",
	"scanned_with", "created_at",
}

// newMockDB wraps a sqlmock connection in the DB interface so repository
// queries run through real sqlx scanning
func newMockDB(t *testing.T) (DB, sqlmock.Sqlmock) {
	t.Helper()

	mockConn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockConn.Close() })

	return &PostgresDB{DB: sqlx.NewDb(mockConn, "sqlmock")}, mock
}
