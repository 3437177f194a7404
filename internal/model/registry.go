package model

import (
	"github.com/fieldline/fieldline/internal/schema"
)

// Registry is the name-to-model lookup shared by every schema for
// resolving reference targets. Populate it during setup, then treat it
// as read-only; it is handed to each added model's schema exactly once.
type Registry struct {
	models map[string]*Model
}

func NewRegistry() *Registry {
	return &Registry{models: make(map[string]*Model)}
}

// Add registers the model under its name and attaches the registry to
// the model's schema. The first model registered under a name wins.
func (r *Registry) Add(m *Model) {
	if _, ok := r.models[m.Name()]; ok {
		return
	}
	r.models[m.Name()] = m
	m.Schema().AttachRegistry(r)
}

// Lookup resolves a model by name. A miss is an ordinary outcome
// during relationship resolution.
func (r *Registry) Lookup(name string) (schema.Model, bool) {
	m, ok := r.models[name]
	if !ok {
		return nil, false
	}
	return m, true
}

// Get returns the concrete model registered under name, or nil.
func (r *Registry) Get(name string) *Model {
	return r.models[name]
}
