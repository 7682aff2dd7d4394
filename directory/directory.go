// Package directory defines the engine's read-side contract with the
// portal's user directory.
//
// The directory owns the user lifecycle; the permission engine only reads
// it to learn a caller's job and super-admin flag. Every persistence
// backend implements Store so that deployments without an external
// directory can serve lookups from the same database, but the engine
// itself depends only on the Directory interface.
package directory

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is the sentinel for a missing user record.
var ErrUserNotFound = errors.New("directory: user not found")

// User is a directory record as seen by the permission engine. ID is the
// authenticated uid issued by the identity provider. JobID is nil for
// users not yet assigned to a job.
type User struct {
	ID           string    `json:"id" db:"id"`
	DisplayName  string    `json:"display_name,omitempty" db:"display_name"`
	IsSuperAdmin bool      `json:"is_super_admin" db:"is_super_admin"`
	JobID        *int      `json:"job_id" db:"job_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Directory is the lookup interface the engine consumes.
type Directory interface {
	// GetUser retrieves a user by uid. Returns ErrUserNotFound when the
	// uid has no directory record.
	GetUser(ctx context.Context, uid string) (*User, error)
}

// Store extends Directory with the write operations the portal's
// onboarding flow uses. The engine never calls these.
type Store interface {
	Directory

	// CreateUser persists a new user record.
	CreateUser(ctx context.Context, u *User) error

	// UpdateUser persists changes to a user record.
	UpdateUser(ctx context.Context, u *User) error

	// DeleteUser removes a user record by uid.
	DeleteUser(ctx context.Context, uid string) error
}
