package models

import (
	"time"

	"github.com/google/uuid"
)

// Credential is the QR string bound to a user. One active credential per
// non-TUP user; the string can be re-issued through an approved change request.
type Credential struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	QRString  string    `json:"qr_string" db:"qr_string"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Credential request statuses
const (
	CredentialRequestPending  = "Pending"
	CredentialRequestApproved = "Approved"
	CredentialRequestRejected = "Rejected"
)

// CredentialRequest tracks a user's request to have their QR string re-issued
type CredentialRequest struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	UserID      uuid.UUID     `json:"user_id" db:"user_id"`
	OldQR       string        `json:"old_qr" db:"old_qr"`
	Reason      string        `json:"reason" db:"reason"`
	NewQRString NullString    `json:"new_qr_string,omitempty" db:"new_qr_string"`
	Status      string        `json:"status" db:"status"`
	ApprovedBy  uuid.NullUUID `json:"approved_by,omitempty" db:"approved_by"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}
