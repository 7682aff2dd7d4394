package authz

import "errors"

var (
	// ErrUnauthenticated is returned when no caller identity is present.
	ErrUnauthenticated = errors.New("authz: unauthenticated")

	// ErrUserNotFound is returned when a required user record is missing
	// from the directory.
	ErrUserNotFound = errors.New("authz: user not found")

	// ErrManagementDenied is returned when RequireManagerAdmin is enabled
	// and a non-super-admin caller invokes a management operation.
	ErrManagementDenied = errors.New("authz: management requires super admin")
)
