// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"secwatch/internal/model"
)

// UserRepository provides account persistence.
type UserRepository interface {
	// Create inserts a new user.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByUsername loads a user by username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// GetByEmail loads a user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// List returns all users, oldest first.
	List(ctx context.Context) ([]model.User, error)
	// UpdateLoginState persists attempt counter, lockout expiry and last
	// login. expectedAttempts guards the write against concurrent attempts
	// on the same row; a mismatch returns errs.ErrVersionConflict.
	UpdateLoginState(ctx context.Context, u *model.User, expectedAttempts int) error
	// UpdateProfile persists email, full name and password hash.
	UpdateProfile(ctx context.Context, u *model.User) error
}

// ActivityLogRepository appends and reads the audit trail.
type ActivityLogRepository interface {
	// Append inserts one activity log entry.
	Append(ctx context.Context, entry *model.ActivityLog) error
	// List returns up to limit entries, newest first.
	List(ctx context.Context, limit int) ([]model.ActivityLog, error)
}
