package layer

import (
	"fmt"
	"log/slog"
	"sort"
)

// Module is the interface packages of built-in layers implement to be wired
// into an application instance.
type Module interface {
	Register(r *Registry)
}

// Registry maps handler names, as referenced by layer directory manifests,
// to layer definitions for a single application instance.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register binds a definition under a handler name. Registering the same
// name twice is a programming error and panics.
func (r *Registry) Register(name string, def Definition) {
	if _, exists := r.defs[name]; exists {
		panic(fmt.Sprintf("layer definition with handler name '%s' already registered", name))
	}
	slog.Debug("Registering layer definition.", "handler", name, "layer", def.Name())
	r.defs[name] = def
}

// Lookup resolves a handler name to its definition.
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// Handlers returns the registered handler names in sorted order.
func (r *Registry) Handlers() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
