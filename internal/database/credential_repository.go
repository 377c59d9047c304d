package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tup-vms/vms-backend/internal/models"
)

// CredentialRepository handles QR credential database operations
type CredentialRepository struct {
	db DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db DB) *CredentialRepository {
	return &CredentialRepository{
		db: db,
	}
}

// CreateCredential issues a credential for a user
func (r *CredentialRepository) CreateCredential(userID uuid.UUID, qrString string) (*models.Credential, error) {
	cred := &models.Credential{
		ID:        uuid.New(),
		UserID:    userID,
		QRString:  qrString,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
		INSERT INTO credentials (id, user_id, qr_string, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(query, cred.ID, cred.UserID, cred.QRString, cred.IsActive, cred.CreatedAt, cred.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	return cred, nil
}

// GetByQRString resolves a scanned QR string to its credential
func (r *CredentialRepository) GetByQRString(qrString string) (*models.Credential, error) {
	var cred models.Credential

	query := `
		SELECT id, user_id, qr_string, is_active, created_at, updated_at
		FROM credentials
		WHERE qr_string = $1
	`

	err := r.db.Get(&cred, query, qrString)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential by QR string: %w", err)
	}

	return &cred, nil
}

// GetActiveByUserID returns the user's active credential
func (r *CredentialRepository) GetActiveByUserID(userID uuid.UUID) (*models.Credential, error) {
	var cred models.Credential

	query := `
		SELECT id, user_id, qr_string, is_active, created_at, updated_at
		FROM credentials
		WHERE user_id = $1 AND is_active
	`

	err := r.db.Get(&cred, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential by user ID: %w", err)
	}

	return &cred, nil
}

// UpdateQRString replaces the QR string on an existing credential
func (r *CredentialRepository) UpdateQRString(id uuid.UUID, qrString string) error {
	query := `
		UPDATE credentials
		SET qr_string = $1,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, qrString, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update QR string: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("credential not found")
	}

	return nil
}
