package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tup-vms/vms-backend/internal/database"
	"github.com/tup-vms/vms-backend/internal/middleware"
	"github.com/tup-vms/vms-backend/internal/models"
	"github.com/tup-vms/vms-backend/internal/services"
	"github.com/tup-vms/vms-backend/pkg/jwt"
)

var credentialTestColumns = []string{
	"id", "user_id", "qr_string", "is_active", "created_at", "updated_at",
}

var userTestColumns = []string{
	"id", "first_name", "surname", "birthdate", "role", "staff_type",
	"photo_url", "email", "password_hash", "status", "created_at",
}

var logTestColumns = []string{
	"id", "subject_id", "counterpart_id", "credential_id", "kind", "date",
	"time_in", "time_out", "status", "reason", "approved_by", "scanned_by",
	"scanned_with", "created_at",
}

func newScanTestServer(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockConn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockConn.Close() })

	db := &database.PostgresDB{DB: sqlx.NewDb(mockConn, "sqlmock")}
	scanService := services.NewScanService(
		database.NewUserRepository(db),
		database.NewCredentialRepository(db),
		database.NewLogRepository(db),
		database.NewAttendanceRepository(db),
		database.NewScanRepository(db),
	)
	handler := NewScanHandler(scanService)

	jwtService := jwt.NewService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	router := gin.New()
	scan := router.Group("/api/scan")
	scan.Use(middleware.AuthMiddleware(jwtService))
	scan.POST("", middleware.RequireRole("TUP"), handler.ScanQR)
	scan.POST("/transaction", middleware.RequireRole("Staff"), handler.ScanTransactionQR)

	return router, mock, jwtService
}

func doScan(t *testing.T, router *gin.Engine, token, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	return w
}

func TestScanQREndpoint(t *testing.T) {
	router, mock, jwtService := newScanTestServer(t)

	operatorID := uuid.New()
	token, err := jwtService.GenerateAccessToken(operatorID, "admin@example.com", "TUP", "")
	require.NoError(t, err)

	t.Run("Visitor Check-In", func(t *testing.T) {
		credentialID, userID := uuid.New(), uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM credentials WHERE qr_string`).
			WithArgs("TUPV-01-0001").
			WillReturnRows(sqlmock.NewRows(credentialTestColumns).AddRow(
				credentialID, userID, "TUPV-01-0001", true, now, now,
			))
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(userTestColumns).AddRow(
				userID, "Ana", "Cruz", now.AddDate(-25, 0, 0), "Visitor", nil,
				"", "ana@example.com", "hashed", "Active", now,
			))
		mock.ExpectQuery(`SELECT (.+) FROM logs`).
			WillReturnRows(sqlmock.NewRows(logTestColumns))
		mock.ExpectExec(`INSERT INTO logs`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		w := doScan(t, router, token, "/api/scan", models.ScanQRRequest{
			QRString: "TUPV-01-0001", Mode: "checkin", Reason: "attendance",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "Check-in successful")

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Validation Error", func(t *testing.T) {
		w := doScan(t, router, token, "/api/scan", models.ScanQRRequest{
			Mode: "checkin", Reason: "attendance",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown QR", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM credentials WHERE qr_string`).
			WithArgs("TUPV-99-9999").
			WillReturnRows(sqlmock.NewRows(credentialTestColumns))

		w := doScan(t, router, token, "/api/scan", models.ScanQRRequest{
			QRString: "TUPV-99-9999", Mode: "checkin", Reason: "attendance",
		})

		assert.Equal(t, http.StatusNotFound, w.Code)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Role Gate", func(t *testing.T) {
		visitorToken, err := jwtService.GenerateAccessToken(uuid.New(), "ana@example.com", "Visitor", "")
		require.NoError(t, err)

		w := doScan(t, router, visitorToken, "/api/scan", models.ScanQRRequest{
			QRString: "TUPV-01-0001", Mode: "checkin", Reason: "attendance",
		})

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestScanTransactionEndpointRoleGate(t *testing.T) {
	router, _, jwtService := newScanTestServer(t)

	// only Staff may use the staff transaction endpoint
	token, err := jwtService.GenerateAccessToken(uuid.New(), "admin@example.com", "TUP", "")
	require.NoError(t, err)

	w := doScan(t, router, token, "/api/scan/transaction", models.TransactionScanRequest{
		QRString: "TUPS-01-0001", Mode: "checkin", Type: "Transaction",
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}
