package models

import (
	"time"

	"github.com/google/uuid"
)

// Activity records a free-form interaction between two users. Append-only;
// not part of the scan state machine.
type Activity struct {
	ID           uuid.UUID `json:"id" db:"id"`
	FromUserID   uuid.UUID `json:"from_user_id" db:"from_user_id"`
	ToUserID     uuid.UUID `json:"to_user_id" db:"to_user_id"`
	FromQR       string    `json:"from_qr" db:"from_qr"`
	ToQR         string    `json:"to_qr" db:"to_qr"`
	ActivityType string    `json:"activity_type" db:"activity_type"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// RecordActivityRequest is the record-activity request body
type RecordActivityRequest struct {
	ToQR         string `json:"toQR" binding:"required"`
	ActivityType string `json:"activityType" binding:"required"`
}
