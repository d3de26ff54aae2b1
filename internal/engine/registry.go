package engine

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
)

// Registry holds one instance of each of the three C2 variants and resolves
// an EngineName to the concrete interfaces.Engine a worker should drive.
type Registry struct {
	engines map[interfaces.EngineName]interfaces.Engine
}

// NewRegistry builds all three engines eagerly; a browser engine that fails
// to start (e.g. no Chrome binary available) is omitted rather than failing
// the whole registry, since static-only operation is still useful.
func NewRegistry(cfg Config, logger arbor.ILogger) (*Registry, []error) {
	r := &Registry{engines: make(map[interfaces.EngineName]interfaces.Engine, 3)}
	var errs []error

	r.engines[interfaces.EngineStatic] = NewStatic(cfg, logger)

	if a, err := NewBrowserA(cfg, logger); err != nil {
		errs = append(errs, fmt.Errorf("engine: browserA unavailable: %w", err))
	} else {
		r.engines[interfaces.EngineBrowserA] = a
	}

	if b, err := NewBrowserB(cfg, logger); err != nil {
		errs = append(errs, fmt.Errorf("engine: browserB unavailable: %w", err))
	} else {
		r.engines[interfaces.EngineBrowserB] = b
	}

	return r, errs
}

// Get resolves name to its engine, or false if it was never started.
func (r *Registry) Get(name interfaces.EngineName) (interfaces.Engine, bool) {
	e, ok := r.engines[name]
	return e, ok
}

// Close shuts down every started engine, collecting (not short-circuiting
// on) individual close errors.
func (r *Registry) Close() error {
	var firstErr error
	for _, e := range r.engines {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
