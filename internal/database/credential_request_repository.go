package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tup-vms/vms-backend/internal/models"
)

// CredentialRequestRepository handles QR change request database operations
type CredentialRequestRepository struct {
	db DB
}

// NewCredentialRequestRepository creates a new credential request repository
func NewCredentialRequestRepository(db DB) *CredentialRequestRepository {
	return &CredentialRequestRepository{
		db: db,
	}
}

// CreateRequest files a new pending QR change request
func (r *CredentialRequestRepository) CreateRequest(userID uuid.UUID, oldQR, reason string) (*models.CredentialRequest, error) {
	req := &models.CredentialRequest{
		ID:        uuid.New(),
		UserID:    userID,
		OldQR:     oldQR,
		Reason:    reason,
		Status:    models.CredentialRequestPending,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO credential_requests (id, user_id, old_qr, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(query, req.ID, req.UserID, req.OldQR, req.Reason, req.Status, req.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential request: %w", err)
	}

	return req, nil
}

// GetByID retrieves a request by ID
func (r *CredentialRequestRepository) GetByID(id uuid.UUID) (*models.CredentialRequest, error) {
	var req models.CredentialRequest

	query := `
		SELECT id, user_id, old_qr, reason, new_qr_string, status, approved_by, created_at
		FROM credential_requests
		WHERE id = $1
	`

	err := r.db.Get(&req, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential request: %w", err)
	}

	return &req, nil
}

// ListRequests retrieves all requests, newest first
func (r *CredentialRequestRepository) ListRequests(limit, offset int) ([]*models.CredentialRequest, error) {
	var reqs []*models.CredentialRequest

	query := `
		SELECT id, user_id, old_qr, reason, new_qr_string, status, approved_by, created_at
		FROM credential_requests
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	err := r.db.Select(&reqs, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list credential requests: %w", err)
	}

	return reqs, nil
}

// Resolve marks a request approved or rejected, recording the approver and,
// on approval, the newly issued QR string
func (r *CredentialRequestRepository) Resolve(id uuid.UUID, status string, approvedBy uuid.UUID, newQRString string) error {
	query := `
		UPDATE credential_requests
		SET status = $1,
		    approved_by = $2,
		    new_qr_string = NULLIF($3, '')
		WHERE id = $4 AND status = $5
	`

	result, err := r.db.Exec(query, status, approvedBy, newQRString, id, models.CredentialRequestPending)
	if err != nil {
		return fmt.Errorf("failed to resolve credential request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("pending credential request not found")
	}

	return nil
}
