package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tup-vms/vms-backend/internal/models"
)

// ActivityRepository handles activity database operations
type ActivityRepository struct {
	db DB
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db DB) *ActivityRepository {
	return &ActivityRepository{
		db: db,
	}
}

// CreateActivity appends an activity row
func (r *ActivityRepository) CreateActivity(activity *models.Activity) error {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}
	activity.CreatedAt = time.Now()

	query := `
		INSERT INTO activities (id, from_user_id, to_user_id, from_qr, to_qr, activity_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(
		query,
		activity.ID,
		activity.FromUserID,
		activity.ToUserID,
		activity.FromQR,
		activity.ToQR,
		activity.ActivityType,
		activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

// ListByFromUser retrieves activities initiated by a user, newest first
func (r *ActivityRepository) ListByFromUser(fromUserID uuid.UUID, limit, offset int) ([]*models.Activity, error) {
	var activities []*models.Activity

	query := `
		SELECT id, from_user_id, to_user_id, from_qr, to_qr, activity_type, created_at
		FROM activities
		WHERE from_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	err := r.db.Select(&activities, query, fromUserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return activities, nil
}
