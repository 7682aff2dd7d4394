package grant

import (
	"context"
	"errors"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

// ErrNotFound is the sentinel for a missing grant tuple. Store
// implementations wrap it; callers check with errors.Is.
var ErrNotFound = errors.New("grant: not found")

// Store defines persistence operations for job permission grants.
// No operation here encodes precedence or validation — that belongs to the
// engine.
type Store interface {
	// CreateGrant persists a new grant. A concurrent create of the same
	// (job, level, id) tuple is not an error: the existing record wins and
	// CreateGrant returns nil.
	CreateGrant(ctx context.Context, g *Grant) error

	// GetGrant retrieves the grant for an exact (job, level, id) tuple.
	// Returns ErrNotFound when the tuple has no grant.
	GetGrant(ctx context.Context, jobID int, ref permid.Ref) (*Grant, error)

	// ListGrantsByJob returns all grants for a job, oldest first.
	ListGrantsByJob(ctx context.Context, jobID int) ([]*Grant, error)

	// ListGrants returns grants matching the filter.
	ListGrants(ctx context.Context, filter *ListFilter) ([]*Grant, error)

	// CountGrants returns the number of grants matching the filter.
	CountGrants(ctx context.Context, filter *ListFilter) (int64, error)

	// DeleteGrant removes every grant matching the exact (job, level, id)
	// tuple and reports how many records were deleted. Deleting an absent
	// tuple is a no-op, not an error.
	DeleteGrant(ctx context.Context, jobID int, ref permid.Ref) (int64, error)

	// DeleteGrantsByJob removes all grants for a job.
	DeleteGrantsByJob(ctx context.Context, jobID int) error
}
