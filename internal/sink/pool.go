package sink

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Pool holds one long-lived Sink per configured URI, constructed once on
// first use and shared by reference across every Runtime that publishes
// through it (spec.md §5's concurrency model: handler executions share
// sink clients but never share HandlerState). A process typically
// constructs a single Pool at startup and hands it to every run.
type Pool struct {
	mu    sync.Mutex
	sinks map[string]Sink
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{sinks: make(map[string]Sink)}
}

// Get returns the pooled Sink for rawURI, opening it on first use and
// returning the cached instance on every subsequent call with the same
// URI. Different URIs are never coalesced, even when they share a scheme
// and host, since a sink backend's path prefix is fixed at construction
// (archive_uri and upload_uri commonly point at the same bucket under
// different prefixes).
func (p *Pool) Get(ctx context.Context, rawURI string) (Sink, error) {
	if rawURI == "" {
		return nil, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.sinks[rawURI]; ok {
		return s, nil
	}

	s, err := Open(ctx, rawURI)
	if err != nil {
		return nil, err
	}

	p.sinks[rawURI] = s

	return s, nil
}

// Close closes every sink the pool has opened, collecting errors from
// each rather than stopping at the first failure.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error

	for uri, s := range p.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing sink %q: %w", uri, err))
		}
	}

	p.sinks = make(map[string]Sink)

	return errors.Join(errs...)
}
