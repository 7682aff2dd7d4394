package authz

import "context"

// Cache provides caching for permission check results.
//
// Invalidation is synchronous with every grant/exception write: exception
// writes invalidate the target user, grant writes invalidate everything
// (the set of users sharing a job is not enumerable from the engine).
type Cache interface {
	// Get returns a cached check result, if available.
	Get(ctx context.Context, callerID, permissionID string) (*CheckResult, bool)

	// Set stores a check result in the cache.
	Set(ctx context.Context, callerID, permissionID string, result *CheckResult)

	// InvalidateUser removes all cached results for one caller.
	InvalidateUser(ctx context.Context, callerID string)

	// InvalidateAll removes all cached results.
	InvalidateAll(ctx context.Context)
}
