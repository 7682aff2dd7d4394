// Package plugin defines the plugin system for the permission engine.
// Plugins are notified of lifecycle events (check evaluated, grant added,
// exception upserted, etc.) and can react — logging, metrics, tracing.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/permid"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// BeforeCheck is called before a permission check is evaluated.
type BeforeCheck interface {
	OnBeforeCheck(ctx context.Context, callerID, permissionID string) error
}

// AfterCheck is called after a permission check completes.
type AfterCheck interface {
	OnAfterCheck(ctx context.Context, callerID, permissionID string, allowed bool, decision string) error
}

// GrantAdded is called after a job grant is created.
type GrantAdded interface {
	OnGrantAdded(ctx context.Context, g *grant.Grant) error
}

// GrantRemoved is called after job grants for a tuple are deleted.
type GrantRemoved interface {
	OnGrantRemoved(ctx context.Context, jobID int, ref permid.Ref) error
}

// ExceptionUpserted is called after a user exception is created or updated.
type ExceptionUpserted interface {
	OnExceptionUpserted(ctx context.Context, e *exception.Exception) error
}

// ExceptionDeleted is called after a user exception is deleted.
type ExceptionDeleted interface {
	OnExceptionDeleted(ctx context.Context, userID string, ref permid.Ref) error
}

// Shutdown is called when the engine stops.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
