// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Account roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Activity log actions recorded by the service layer.
const (
	ActionSignup        = "SIGNUP"
	ActionProfileUpdate = "PROFILE_UPDATE"
	ActionAdminAccess   = "ADMIN_ACCESS"
)

// User represents an account row. The plaintext password never leaves the
// hashing boundary; only the bcrypt hash is stored.
type User struct {
	ID             uuid.UUID // PK
	Username       string    // unique
	Email          string    // unique
	HashedPassword string    // bcrypt, salt embedded
	Role           string    // RoleUser or RoleAdmin
	FullName       string
	IsActive       bool
	LoginAttempts  int        // consecutive failures, reset on success
	LockedUntil    *time.Time // set only when LoginAttempts hits the threshold
	LastLogin      *time.Time // updated only on success
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Tokens collects the access/refresh pair issued per successful authentication.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // access token expiry (for diagnostics)
}

// ActivityLog is an audit trail row, optionally linked to a user.
type ActivityLog struct {
	ID        int64
	UserID    *uuid.UUID
	Username  string // joined at read time, empty if the user is gone
	Action    string
	IPAddress string
	UserAgent string
	Status    string // success, failure, error
	Details   map[string]any
	CreatedAt time.Time
}
