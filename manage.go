package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

// ManageJobGrants applies a batch of grant mutations for one job. The
// remove phase runs before the add phase, so a permission id present in
// both lists ends up granted. Unparsable entries are skipped silently;
// valid entries in the same batch still apply. Removing an absent tuple
// is a no-op; adding an existing tuple is skipped, so repeated adds are
// idempotent. Removal only ever touches records for the given job.
func (e *Engine) ManageJobGrants(ctx context.Context, jobID int, add, remove []string) (*GrantChange, error) {
	caller, err := e.authorizeManager(ctx)
	if err != nil {
		return nil, err
	}

	change := &GrantChange{}

	for _, raw := range remove {
		ref, ok := permid.Parse(raw)
		if !ok {
			change.Skipped++
			continue
		}
		n, err := e.store.DeleteGrant(ctx, jobID, ref)
		if err != nil {
			return nil, fmt.Errorf("authz: remove grant %s for job %d: %w", ref, jobID, err)
		}
		change.Removed += int(n)
		if n > 0 && e.plugins != nil {
			e.plugins.EmitGrantRemoved(ctx, jobID, ref)
		}
	}

	for _, raw := range add {
		ref, ok := permid.Parse(raw)
		if !ok {
			change.Skipped++
			continue
		}
		_, err := e.store.GetGrant(ctx, jobID, ref)
		switch {
		case err == nil:
			change.Skipped++
			continue
		case !errors.Is(err, grant.ErrNotFound):
			return nil, fmt.Errorf("authz: check grant %s for job %d: %w", ref, jobID, err)
		}

		g := grant.New(jobID, ref, caller)
		if err := e.store.CreateGrant(ctx, g); err != nil {
			return nil, fmt.Errorf("authz: add grant %s for job %d: %w", ref, jobID, err)
		}
		change.Added++
		if e.plugins != nil {
			e.plugins.EmitGrantAdded(ctx, g)
		}
	}

	// Job membership is not enumerable here, so any grant mutation clears
	// the whole decision cache.
	if e.cache != nil && change.Added+change.Removed > 0 {
		e.cache.InvalidateAll(ctx)
	}

	return change, nil
}

// ManageUserExceptions applies a batch of per-user overrides against the
// target user. For each entry the engine compares the requested outcome
// with what the target's job already provides:
//
//   - An exception exists only where it changes the job default — allow
//     where the job lacks the grant, or deny where the job has it. These
//     entries are upserted by exact tuple.
//   - The other two combinations (allow where the job already grants,
//     deny where the job never granted) are redundant; any stale override
//     for the tuple is deleted instead.
//
// Entries whose id fields violate the one-non-null shape are skipped.
// All entries of one call apply as one batch; the last write per tuple
// wins.
func (e *Engine) ManageUserExceptions(ctx context.Context, targetUserID string, entries []ExceptionEntry) (*ExceptionChange, error) {
	caller, err := e.authorizeManager(ctx)
	if err != nil {
		return nil, err
	}

	target, err := e.lookupUser(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	change := &ExceptionChange{}

	for _, entry := range entries {
		ref, ok := entry.ref()
		if !ok {
			change.Skipped++
			continue
		}

		jobHasIt := false
		if target.JobID != nil {
			_, err := e.store.GetGrant(ctx, *target.JobID, ref)
			switch {
			case err == nil:
				jobHasIt = true
			case !errors.Is(err, grant.ErrNotFound):
				return nil, fmt.Errorf("authz: check grant %s for job %d: %w", ref, *target.JobID, err)
			}
		}

		if entry.Allowed != jobHasIt {
			exc := exception.New(target.ID, ref, entry.Allowed, caller)
			if err := e.store.UpsertException(ctx, exc); err != nil {
				return nil, fmt.Errorf("authz: upsert exception %s for user %s: %w", ref, target.ID, err)
			}
			change.Upserted++
			if e.plugins != nil {
				e.plugins.EmitExceptionUpserted(ctx, exc)
			}
			continue
		}

		n, err := e.store.DeleteException(ctx, target.ID, ref)
		if err != nil {
			return nil, fmt.Errorf("authz: delete exception %s for user %s: %w", ref, target.ID, err)
		}
		change.Deleted += int(n)
		if n > 0 && e.plugins != nil {
			e.plugins.EmitExceptionDeleted(ctx, target.ID, ref)
		}
	}

	if e.cache != nil && change.Upserted+change.Deleted > 0 {
		e.cache.InvalidateUser(ctx, target.ID)
	}

	return change, nil
}

// authorizeManager authenticates the caller of a management operation
// and, when RequireManagerAdmin is set, verifies the super-admin flag.
func (e *Engine) authorizeManager(ctx context.Context) (string, error) {
	caller := resolveCaller(ctx)
	if caller == "" {
		return "", ErrUnauthenticated
	}
	if e.config.RequireManagerAdmin {
		user, err := e.lookupUser(ctx, caller)
		if err != nil {
			return "", err
		}
		if !user.IsSuperAdmin {
			return "", fmt.Errorf("%w: %s", ErrManagementDenied, caller)
		}
	}
	return caller, nil
}
