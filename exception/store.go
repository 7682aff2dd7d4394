package exception

import (
	"context"
	"errors"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

// ErrNotFound is the sentinel for a missing exception tuple. Store
// implementations wrap it; callers check with errors.Is.
var ErrNotFound = errors.New("exception: not found")

// Store defines persistence operations for user permission exceptions.
type Store interface {
	// UpsertException writes the exception for its exact (user, level, id)
	// tuple: updating the existing record in place when one exists,
	// inserting otherwise. Matching requires all three id fields identical,
	// which guarantees at most one record per tuple.
	UpsertException(ctx context.Context, e *Exception) error

	// GetException retrieves the exception for an exact (user, level, id)
	// tuple. Returns ErrNotFound when the tuple has no exception.
	GetException(ctx context.Context, userID string, ref permid.Ref) (*Exception, error)

	// ListExceptionsByUser returns all exceptions for a user, oldest first.
	ListExceptionsByUser(ctx context.Context, userID string) ([]*Exception, error)

	// ListExceptions returns exceptions matching the filter.
	ListExceptions(ctx context.Context, filter *ListFilter) ([]*Exception, error)

	// CountExceptions returns the number of exceptions matching the filter.
	CountExceptions(ctx context.Context, filter *ListFilter) (int64, error)

	// DeleteException removes the exception matching the exact (user,
	// level, id) tuple and reports how many records were deleted. Deleting
	// an absent tuple is a no-op, not an error.
	DeleteException(ctx context.Context, userID string, ref permid.Ref) (int64, error)

	// DeleteExceptionsByUser removes all exceptions for a user.
	DeleteExceptionsByUser(ctx context.Context, userID string) error
}
