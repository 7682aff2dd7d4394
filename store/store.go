// Package store defines the aggregate persistence interface. Each
// subsystem (grant, exception, directory, catalog, decisionlog) defines
// its own store interface; the composite Store composes them all.
// Backends: Mongo (the document store of record), Postgres, SQLite, and
// Memory.
package store

import (
	"context"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/catalog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/decisionlog"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/directory"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/exception"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/grant"
)

// Store is the aggregate persistence interface. A single backend
// implements all subsystem stores.
type Store interface {
	grant.Store
	exception.Store
	directory.Store
	catalog.Store
	decisionlog.Store

	// Migrate runs all schema migrations (indexes for document stores).
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
