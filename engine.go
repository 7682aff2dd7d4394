package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/decisionlog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/directory"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/id"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/plugin"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/store"
)

// Engine is the central permission engine. It resolves single-permission
// checks, computes full effective permission sets, and applies grant and
// exception mutations.
type Engine struct {
	store   store.Store
	dir     directory.Directory
	cache   Cache
	plugins *plugin.Registry
	logger  *slog.Logger
	config  Config

	// collected by WithPlugin; the registry is built after all options
	// have applied so it sees the final logger.
	pluginList []plugin.Plugin
}

// NewEngine creates a new permission engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("authz: store is required")
	}
	if e.dir == nil {
		// The composite store carries a users collection; deployments with
		// an external identity directory override via WithDirectory.
		e.dir = e.store
	}
	if len(e.pluginList) > 0 {
		e.plugins = plugin.NewRegistry(e.logger)
		for _, x := range e.pluginList {
			e.plugins.Register(x)
		}
	}
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start performs any startup initialization.
func (e *Engine) Start(_ context.Context) error { return nil }

// Stop performs graceful shutdown.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Check resolves a single permission for the caller in ctx. This is the
// hot path.
//
// Resolution order: super-admin bypass, then exception (authoritative
// regardless of grants), then job grant. An unparsable permission id
// resolves to a denial, never an error.
func (e *Engine) Check(ctx context.Context, permissionID string) (*CheckResult, error) {
	start := time.Now()

	caller := resolveCaller(ctx)
	if caller == "" {
		return nil, ErrUnauthenticated
	}

	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, caller, permissionID); ok {
			cached.EvalTimeNs = time.Since(start).Nanoseconds()
			return cached, nil
		}
	}

	if e.plugins != nil {
		e.plugins.EmitBeforeCheck(ctx, caller, permissionID)
	}

	user, err := e.lookupUser(ctx, caller)
	if err != nil {
		return nil, err
	}

	result, err := e.resolve(ctx, user, permissionID)
	if err != nil {
		return nil, err
	}
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	if e.cache != nil {
		e.cache.Set(ctx, caller, permissionID, result)
	}
	if e.config.decisionLogEnabled() {
		e.recordDecision(ctx, caller, permissionID, result)
	}
	if e.plugins != nil {
		e.plugins.EmitAfterCheck(ctx, caller, permissionID, result.Allowed, string(result.Decision))
	}

	return result, nil
}

// CanI is a shorthand returning only the boolean outcome of Check.
func (e *Engine) CanI(ctx context.Context, permissionID string) (bool, error) {
	result, err := e.Check(ctx, permissionID)
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

func (e *Engine) resolve(ctx context.Context, user *directory.User, permissionID string) (*CheckResult, error) {
	if user.IsSuperAdmin {
		return &CheckResult{Allowed: true, Decision: DecisionAllowSuperAdmin}, nil
	}

	ref, ok := permid.Parse(permissionID)
	if !ok {
		return &CheckResult{Decision: DecisionDenyMalformed, Reason: "unparsable permission id"}, nil
	}

	exc, err := e.store.GetException(ctx, user.ID, ref)
	switch {
	case err == nil:
		// An exception is authoritative regardless of job grants.
		if exc.Allowed {
			return &CheckResult{Allowed: true, Decision: DecisionAllowException}, nil
		}
		return &CheckResult{Decision: DecisionDenyException, Reason: "denied by manual exception"}, nil
	case !errors.Is(err, exception.ErrNotFound):
		return nil, fmt.Errorf("authz: lookup exception: %w", err)
	}

	if user.JobID == nil {
		return &CheckResult{Decision: DecisionDenyNoGrant, Reason: "user has no job"}, nil
	}

	_, err = e.store.GetGrant(ctx, *user.JobID, ref)
	switch {
	case err == nil:
		return &CheckResult{Allowed: true, Decision: DecisionAllowGrant}, nil
	case errors.Is(err, grant.ErrNotFound):
		return &CheckResult{Decision: DecisionDenyNoGrant, Reason: "job does not grant permission"}, nil
	default:
		return nil, fmt.Errorf("authz: lookup grant: %w", err)
	}
}

// EffectivePermissions computes the caller's full permission set as a map
// of permission-id keys to booleans. The map always contains
// GeneralAccessKey = true. Super admins receive every catalog entry;
// regular users receive the union of their job's grants overlaid by their
// exceptions — exceptions always win, whether they add a new key, flip a
// granted key to false, or re-affirm it.
func (e *Engine) EffectivePermissions(ctx context.Context) (map[string]bool, error) {
	caller := resolveCaller(ctx)
	if caller == "" {
		return nil, ErrUnauthenticated
	}

	user, err := e.lookupUser(ctx, caller)
	if err != nil {
		return nil, err
	}

	perms := map[string]bool{GeneralAccessKey: true}

	if user.IsSuperAdmin {
		if err := e.enumerateCatalogs(ctx, perms); err != nil {
			return nil, err
		}
		return perms, nil
	}

	if user.JobID != nil {
		grants, err := e.store.ListGrantsByJob(ctx, *user.JobID)
		if err != nil {
			return nil, fmt.Errorf("authz: list job grants: %w", err)
		}
		for _, g := range grants {
			ref, ok := g.Ref()
			if !ok {
				e.logger.Warn("skipping malformed grant record",
					slog.String("grant_id", g.ID.String()),
					slog.Int("job_id", g.JobID),
				)
				continue
			}
			perms[ref.String()] = true
		}
	}

	excs, err := e.store.ListExceptionsByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("authz: list exceptions: %w", err)
	}
	for _, x := range excs {
		ref, ok := x.Ref()
		if !ok {
			e.logger.Warn("skipping malformed exception record",
				slog.String("exception_id", x.ID.String()),
				slog.String("user_id", x.UserID),
			)
			continue
		}
		perms[ref.String()] = x.Allowed
	}

	return perms, nil
}

func (e *Engine) enumerateCatalogs(ctx context.Context, perms map[string]bool) error {
	services, err := e.store.ListServices(ctx)
	if err != nil {
		return fmt.Errorf("authz: list services: %w", err)
	}
	for _, s := range services {
		perms[permid.Ref{Level: permid.LevelService, NumericID: s.ID}.String()] = true
	}

	subs, err := e.store.ListSubServices(ctx)
	if err != nil {
		return fmt.Errorf("authz: list sub-services: %w", err)
	}
	for _, s := range subs {
		perms[permid.Ref{Level: permid.LevelSubService, NumericID: s.ID}.String()] = true
	}

	subsubs, err := e.store.ListSubSubServices(ctx)
	if err != nil {
		return fmt.Errorf("authz: list sub-sub-services: %w", err)
	}
	for _, s := range subsubs {
		perms[permid.Ref{Level: permid.LevelSubSubService, NumericID: s.ID}.String()] = true
	}

	return nil
}

// lookupUser loads a user from the directory, mapping the directory's
// sentinel onto the engine's.
func (e *Engine) lookupUser(ctx context.Context, uid string) (*directory.User, error) {
	user, err := e.dir.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, uid)
		}
		return nil, fmt.Errorf("authz: lookup user: %w", err)
	}
	return user, nil
}

// recordDecision appends a check outcome to the audit log. Best effort: a
// failed audit write is logged and never fails the check.
func (e *Engine) recordDecision(ctx context.Context, caller, permissionID string, result *CheckResult) {
	entry := &decisionlog.Entry{
		ID:           id.NewDecisionID(),
		CallerID:     caller,
		PermissionID: permissionID,
		Allowed:      result.Allowed,
		Decision:     string(result.Decision),
		Reason:       result.Reason,
		EvalTimeNs:   result.EvalTimeNs,
	}
	if err := e.store.AppendDecision(ctx, entry); err != nil {
		e.logger.Warn("decision log append failed",
			slog.String("caller_id", caller),
			slog.String("permission_id", permissionID),
			slog.Any("error", err),
		)
	}
}
