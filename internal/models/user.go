package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role identifies what kind of account a user holds
type Role string

const (
	RoleTUP     Role = "TUP" // campus admin / scanning operator
	RoleStaff   Role = "Staff"
	RoleStudent Role = "Student"
	RoleVisitor Role = "Visitor"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleTUP, RoleStaff, RoleStudent, RoleVisitor:
		return true
	}
	return false
}

// StaffTypeMaintenance is the staff type that requires an approver on go-out checkouts
const StaffTypeMaintenance = "Maintenance"

// User statuses
const (
	UserStatusActive   = "Active"
	UserStatusInTUP    = "In TUP"
	UserStatusInactive = "Inactive"
)

// User represents a registered account (student, staff, visitor or TUP admin)
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	FirstName    string     `json:"first_name" db:"first_name"`
	Surname      string     `json:"surname" db:"surname"`
	Birthdate    time.Time  `json:"birthdate" db:"birthdate"`
	Role         Role       `json:"role" db:"role"`
	StaffType    NullString `json:"staff_type,omitempty" db:"staff_type"`
	PhotoURL     string     `json:"photo_url" db:"photo_url"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Status       string     `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// IsMaintenanceStaff reports whether the user is Maintenance staff
func (u *User) IsMaintenanceStaff() bool {
	return u.Role == RoleStaff && u.StaffType.Valid && u.StaffType.String == StaffTypeMaintenance
}

// RegisterRequest is the registration request body
type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	Surname   string `json:"surname" binding:"required"`
	Birthdate string `json:"birthdate" binding:"required"` // YYYY-MM-DD
	Role      string `json:"role" binding:"required"`
	StaffType string `json:"staffType"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	PhotoURL  string `json:"photoURL" binding:"required"`
}

// Validate checks fields gin binding cannot express
func (r *RegisterRequest) Validate() error {
	if !Role(r.Role).Valid() {
		return fmt.Errorf("invalid role: %s", r.Role)
	}
	if _, err := time.Parse("2006-01-02", r.Birthdate); err != nil {
		return fmt.Errorf("invalid birthdate format, use YYYY-MM-DD")
	}
	return nil
}

// LoginRequest is the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
