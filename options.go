package authz

import (
	"log/slog"

	"github.com/Hejazi-bu/Hejazi-SSD-sub000/directory"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/plugin"
	"github.com/Hejazi-bu/Hejazi-SSD-sub000/store"
)

// Option is a functional option for the Engine.
type Option func(*Engine)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(e *Engine) { e.store = s } }

// WithDirectory sets the user directory. When omitted, user lookups are
// served from the composite store's own users collection.
func WithDirectory(d directory.Directory) Option { return func(e *Engine) { e.dir = d } }

// WithCache sets the check result cache.
func WithCache(c Cache) Option { return func(e *Engine) { e.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithConfig sets the engine configuration.
func WithConfig(c Config) Option { return func(e *Engine) { e.config = c } }

// WithPlugin registers a plugin with the engine. Registration order is
// preserved; option order relative to WithLogger does not matter.
func WithPlugin(x plugin.Plugin) Option {
	return func(e *Engine) { e.pluginList = append(e.pluginList, x) }
}
