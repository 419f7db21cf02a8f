package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
)

// Registry errors.
var (
	ErrDuplicateTool = errors.New("tool already registered")
	ErrUnnamedTool   = errors.New("tool has no name")
)

// Registry maps tool names to tools and aggregates the sources their
// executions return. It keeps one source slot per tool holding that tool's
// most recent execution; DrainSources and ClearSources run under a mutex so
// concurrent queries sharing a registry cannot interleave a drain with a
// clear.
type Registry struct {
	mu      sync.Mutex
	order   []Tool
	byName  map[string]Tool
	sources map[string][]Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]Tool),
		sources: make(map[string][]Source),
	}
}

// Register adds a tool. Registration order is preserved for Refs and
// DrainSources.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return ErrUnnamedTool
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}
	r.byName[name] = t
	r.order = append(r.order, t)
	return nil
}

// Refs returns every registered tool's Genkit reference in registration
// order, for offering schemas to the model.
func (r *Registry) Refs() []ai.ToolRef {
	r.mu.Lock()
	defer r.mu.Unlock()

	refs := make([]ai.ToolRef, 0, len(r.order))
	for _, t := range r.order {
		refs = append(refs, t.Definition())
	}
	return refs
}

// Dispatch executes a tool by name and returns its text. Total: an unknown
// name yields "Tool '{name}' not found" rather than an error. The tool's
// returned sources replace its slot.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) string {
	r.mu.Lock()
	t, ok := r.byName[name]
	r.mu.Unlock()

	if !ok {
		return fmt.Sprintf("Tool '%s' not found", name)
	}

	// Execution happens outside the lock; tools hit the database and the
	// embedder.
	text, sources := t.Execute(ctx, args)

	r.mu.Lock()
	r.sources[name] = sources
	r.mu.Unlock()

	return text
}

// DrainSources returns every tool's current sources concatenated in
// registration order. It does not clear; pair with ClearSources.
func (r *Registry) DrainSources() []Source {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []Source
	for _, t := range r.order {
		all = append(all, r.sources[t.Name()]...)
	}
	return all
}

// ClearSources empties every tool's source slot.
func (r *Registry) ClearSources() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.sources)
}
