// Package memharvester is an in-memory harvester.Harvester used by
// publisher tests, standing in for an external harvester process.
package memharvester

import (
	"context"
	"fmt"
	"sync"

	"github.com/ingestpipe/ingestpipe/internal/sink/harvester"
)

// Harvester records every Ingest/Remove call it receives, in order, and
// can be configured to reject Remove to exercise the
// ErrHarvestNotRollbackable path.
type Harvester struct {
	mu sync.Mutex

	name      string
	removable bool

	Ingested [][]harvester.Record
	Removed  [][]harvester.Record

	FailIngest error
	FailRemove error
}

// New returns a Harvester named name. removable controls SupportsRemoval.
func New(name string, removable bool) *Harvester {
	return &Harvester{name: name, removable: removable}
}

func (h *Harvester) Name() string { return h.name }

func (h *Harvester) SupportsRemoval() bool { return h.removable }

func (h *Harvester) Ingest(ctx context.Context, group []harvester.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.FailIngest != nil {
		return h.FailIngest
	}

	h.Ingested = append(h.Ingested, group)

	return nil
}

func (h *Harvester) Remove(ctx context.Context, group []harvester.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.removable {
		return fmt.Errorf("harvester %s: removal not supported", h.name)
	}

	if h.FailRemove != nil {
		return h.FailRemove
	}

	h.Removed = append(h.Removed, group)

	return nil
}

// IngestCount returns how many groups have been ingested so far.
func (h *Harvester) IngestCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.Ingested)
}

var _ harvester.Harvester = (*Harvester)(nil)
