package plugin

import (
	"context"
	"log/slog"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

// Named entry types pair a hook with the plugin name for logging.

type beforeCheckEntry struct {
	name string
	hook BeforeCheck
}
type afterCheckEntry struct {
	name string
	hook AfterCheck
}
type grantAddedEntry struct {
	name string
	hook GrantAdded
}
type grantRemovedEntry struct {
	name string
	hook GrantRemoved
}
type exceptionUpsertedEntry struct {
	name string
	hook ExceptionUpserted
}
type exceptionDeletedEntry struct {
	name string
	hook ExceptionDeleted
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	beforeCheck       []beforeCheckEntry
	afterCheck        []afterCheckEntry
	grantAdded        []grantAddedEntry
	grantRemoved      []grantRemovedEntry
	exceptionUpserted []exceptionUpsertedEntry
	exceptionDeleted  []exceptionDeletedEntry
	shutdown          []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(BeforeCheck); ok {
		r.beforeCheck = append(r.beforeCheck, beforeCheckEntry{name, h})
	}
	if h, ok := p.(AfterCheck); ok {
		r.afterCheck = append(r.afterCheck, afterCheckEntry{name, h})
	}
	if h, ok := p.(GrantAdded); ok {
		r.grantAdded = append(r.grantAdded, grantAddedEntry{name, h})
	}
	if h, ok := p.(GrantRemoved); ok {
		r.grantRemoved = append(r.grantRemoved, grantRemovedEntry{name, h})
	}
	if h, ok := p.(ExceptionUpserted); ok {
		r.exceptionUpserted = append(r.exceptionUpserted, exceptionUpsertedEntry{name, h})
	}
	if h, ok := p.(ExceptionDeleted); ok {
		r.exceptionDeleted = append(r.exceptionDeleted, exceptionDeletedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// EmitBeforeCheck notifies all plugins that implement BeforeCheck.
func (r *Registry) EmitBeforeCheck(ctx context.Context, callerID, permissionID string) {
	for _, e := range r.beforeCheck {
		if err := e.hook.OnBeforeCheck(ctx, callerID, permissionID); err != nil {
			r.logHookError("OnBeforeCheck", e.name, err)
		}
	}
}

// EmitAfterCheck notifies all plugins that implement AfterCheck.
func (r *Registry) EmitAfterCheck(ctx context.Context, callerID, permissionID string, allowed bool, decision string) {
	for _, e := range r.afterCheck {
		if err := e.hook.OnAfterCheck(ctx, callerID, permissionID, allowed, decision); err != nil {
			r.logHookError("OnAfterCheck", e.name, err)
		}
	}
}

// EmitGrantAdded notifies all plugins that implement GrantAdded.
func (r *Registry) EmitGrantAdded(ctx context.Context, g *grant.Grant) {
	for _, e := range r.grantAdded {
		if err := e.hook.OnGrantAdded(ctx, g); err != nil {
			r.logHookError("OnGrantAdded", e.name, err)
		}
	}
}

// EmitGrantRemoved notifies all plugins that implement GrantRemoved.
func (r *Registry) EmitGrantRemoved(ctx context.Context, jobID int, ref permid.Ref) {
	for _, e := range r.grantRemoved {
		if err := e.hook.OnGrantRemoved(ctx, jobID, ref); err != nil {
			r.logHookError("OnGrantRemoved", e.name, err)
		}
	}
}

// EmitExceptionUpserted notifies all plugins that implement ExceptionUpserted.
func (r *Registry) EmitExceptionUpserted(ctx context.Context, x *exception.Exception) {
	for _, e := range r.exceptionUpserted {
		if err := e.hook.OnExceptionUpserted(ctx, x); err != nil {
			r.logHookError("OnExceptionUpserted", e.name, err)
		}
	}
}

// EmitExceptionDeleted notifies all plugins that implement ExceptionDeleted.
func (r *Registry) EmitExceptionDeleted(ctx context.Context, userID string, ref permid.Ref) {
	for _, e := range r.exceptionDeleted {
		if err := e.hook.OnExceptionDeleted(ctx, userID, ref); err != nil {
			r.logHookError("OnExceptionDeleted", e.name, err)
		}
	}
}

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a hook failure. Hook errors never propagate to the
// caller — plugins observe, they do not veto.
func (r *Registry) logHookError(hook, plugin string, err error) {
	if r.logger == nil {
		return
	}
	r.logger.Warn("plugin hook failed",
		slog.String("hook", hook),
		slog.String("plugin", plugin),
		slog.Any("error", err),
	)
}
