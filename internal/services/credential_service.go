package services

import (
	"github.com/google/uuid"
	"github.com/tup-vms/vms-backend/internal/database"
	"github.com/tup-vms/vms-backend/internal/models"
	"github.com/tup-vms/vms-backend/pkg/qr"
)

// maxIssueAttempts bounds QR string regeneration on collision
const maxIssueAttempts = 5

// CredentialService issues QR credentials and drives the re-issue flow:
// a user files a change request, an admin approves it, and approval swaps
// the QR string on the user's active credential.
type CredentialService struct {
	credentials *database.CredentialRepository
	requests    *database.CredentialRequestRepository
	users       *database.UserRepository
}

// NewCredentialService creates a new credential service
func NewCredentialService(
	credentials *database.CredentialRepository,
	requests *database.CredentialRequestRepository,
	users *database.UserRepository,
) *CredentialService {
	return &CredentialService{
		credentials: credentials,
		requests:    requests,
		users:       users,
	}
}

// Issue creates a credential with a freshly generated QR string for a user
func (s *CredentialService) Issue(userID uuid.UUID, role string) (*models.Credential, error) {
	qrString, err := s.generateUnused(role)
	if err != nil {
		return nil, err
	}

	credential, err := s.credentials.CreateCredential(userID, qrString)
	if err != nil {
		return nil, NewInternalError("Failed to issue credential", err)
	}

	return credential, nil
}

// Resolve maps a scanned QR string to its credential
func (s *CredentialService) Resolve(qrString string) (*models.Credential, error) {
	credential, err := s.credentials.GetByQRString(qrString)
	if err != nil {
		return nil, NewInternalError("Failed to resolve QR code", err)
	}
	if credential == nil {
		return nil, NewNotFoundError("Invalid QR code")
	}
	if !credential.IsActive {
		return nil, NewValidationError("QR code is no longer active")
	}
	return credential, nil
}

// GetForUser returns the user's active credential
func (s *CredentialService) GetForUser(userID uuid.UUID) (*models.Credential, error) {
	credential, err := s.credentials.GetActiveByUserID(userID)
	if err != nil {
		return nil, NewInternalError("Failed to look up credential", err)
	}
	if credential == nil {
		return nil, NewNotFoundError("No active credential found")
	}
	return credential, nil
}

// RequestChange files a pending QR change request for the user's active credential
func (s *CredentialService) RequestChange(userID uuid.UUID, reason string) (*models.CredentialRequest, error) {
	if reason == "" {
		return nil, NewValidationError("Reason is required")
	}

	credential, err := s.GetForUser(userID)
	if err != nil {
		return nil, err
	}

	request, err := s.requests.CreateRequest(userID, credential.QRString, reason)
	if err != nil {
		return nil, NewInternalError("Failed to create change request", err)
	}

	return request, nil
}

// ListRequests returns change requests, newest first
func (s *CredentialService) ListRequests(limit, offset int) ([]*models.CredentialRequest, error) {
	requests, err := s.requests.ListRequests(limit, offset)
	if err != nil {
		return nil, NewInternalError("Failed to list change requests", err)
	}
	return requests, nil
}

// Approve resolves a pending change request and re-issues the user's QR string
func (s *CredentialService) Approve(requestID, approverID uuid.UUID) (*models.CredentialRequest, error) {
	request, err := s.pendingRequest(requestID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(request.UserID)
	if err != nil {
		return nil, NewInternalError("Failed to look up user", err)
	}
	if user == nil {
		return nil, NewNotFoundError("User not found")
	}

	credential, err := s.GetForUser(request.UserID)
	if err != nil {
		return nil, err
	}

	qrString, err := s.generateUnused(string(user.Role))
	if err != nil {
		return nil, err
	}

	if err := s.credentials.UpdateQRString(credential.ID, qrString); err != nil {
		return nil, NewInternalError("Failed to update credential", err)
	}
	if err := s.requests.Resolve(requestID, models.CredentialRequestApproved, approverID, qrString); err != nil {
		return nil, NewInternalError("Failed to resolve change request", err)
	}

	request.Status = models.CredentialRequestApproved
	request.ApprovedBy = uuid.NullUUID{UUID: approverID, Valid: true}
	request.NewQRString = models.NewNullString(qrString)

	return request, nil
}

// Reject resolves a pending change request without touching the credential
func (s *CredentialService) Reject(requestID, approverID uuid.UUID) (*models.CredentialRequest, error) {
	request, err := s.pendingRequest(requestID)
	if err != nil {
		return nil, err
	}

	if err := s.requests.Resolve(requestID, models.CredentialRequestRejected, approverID, ""); err != nil {
		return nil, NewInternalError("Failed to resolve change request", err)
	}

	request.Status = models.CredentialRequestRejected
	request.ApprovedBy = uuid.NullUUID{UUID: approverID, Valid: true}

	return request, nil
}

func (s *CredentialService) pendingRequest(requestID uuid.UUID) (*models.CredentialRequest, error) {
	request, err := s.requests.GetByID(requestID)
	if err != nil {
		return nil, NewInternalError("Failed to look up change request", err)
	}
	if request == nil {
		return nil, NewNotFoundError("Change request not found")
	}
	if request.Status != models.CredentialRequestPending {
		return nil, NewConflictError("Change request already resolved")
	}
	return request, nil
}

// generateUnused produces a QR string not already bound to a credential
func (s *CredentialService) generateUnused(role string) (string, error) {
	for i := 0; i < maxIssueAttempts; i++ {
		qrString, err := qr.Generate(role)
		if err != nil {
			return "", NewInternalError("Failed to generate QR string", err)
		}

		existing, err := s.credentials.GetByQRString(qrString)
		if err != nil {
			return "", NewInternalError("Failed to check QR string", err)
		}
		if existing == nil {
			return qrString, nil
		}
	}

	return "", NewInternalError("Failed to generate an unused QR string", nil)
}
