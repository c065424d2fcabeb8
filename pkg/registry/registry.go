package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/refitlabs/refit/pkg/domain"
	"github.com/refitlabs/refit/pkg/ports"
)

// PhaseFunc is an in-process phase implementation. Hosts embedding refit can
// register Go functions instead of configuring subprocess commands.
type PhaseFunc func(ctx context.Context, req ports.ExecuteRequest) (*ports.ExecuteResult, error)

// Registry maps phase names to in-process implementations and satisfies
// ports.PhaseExecutor, so it plugs straight into the pipeline controller.
type Registry struct {
	mu     sync.RWMutex
	phases map[string]PhaseFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		phases: make(map[string]PhaseFunc),
	}
}

// Register adds a phase implementation by canonical name.
// If an implementation with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn PhaseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases[name] = fn
}

// Execute dispatches the request to the registered implementation.
func (r *Registry) Execute(ctx context.Context, req ports.ExecuteRequest) (*ports.ExecuteResult, error) {
	name := domain.PhaseName(req.Phase)

	r.mu.RLock()
	fn, ok := r.phases[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no implementation registered for phase %q", name)
	}
	return fn(ctx, req)
}
