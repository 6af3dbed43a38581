// Package exec invokes an external harvester as a subprocess, feeding it
// the group of records as JSON on stdin — the "process-exec" invocation
// strategy named in spec.md §6.
package exec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/ingestpipe/ingestpipe/internal/sink/harvester"
)

// Harvester shells out to a configured binary for ingest and (optionally)
// removal.
type Harvester struct {
	name        string
	ingestCmd   []string
	removeCmd   []string // empty means SupportsRemoval() is false
	schemaBase  string
	commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd
}

// New constructs a process-exec Harvester. ingestCmd and removeCmd are the
// argv of the external tool; removeCmd may be nil if the harvester cannot
// remove entries.
func New(name string, ingestCmd, removeCmd []string, schemaBase string) *Harvester {
	return &Harvester{
		name:        name,
		ingestCmd:   ingestCmd,
		removeCmd:   removeCmd,
		schemaBase:  schemaBase,
		commandFunc: exec.CommandContext,
	}
}

func (h *Harvester) Name() string { return h.name }

func (h *Harvester) SupportsRemoval() bool { return len(h.removeCmd) > 0 }

func (h *Harvester) Ingest(ctx context.Context, group []harvester.Record) error {
	return h.invoke(ctx, h.ingestCmd, group)
}

func (h *Harvester) Remove(ctx context.Context, group []harvester.Record) error {
	if !h.SupportsRemoval() {
		return fmt.Errorf("harvester %s: remove not configured", h.name)
	}

	return h.invoke(ctx, h.removeCmd, group)
}

type payload struct {
	SchemaBase string              `json:"schema_base"`
	Records    []harvester.Record  `json:"records"`
}

func (h *Harvester) invoke(ctx context.Context, argv []string, group []harvester.Record) error {
	if len(argv) == 0 {
		return fmt.Errorf("harvester %s: no command configured", h.name)
	}

	body, err := json.Marshal(payload{SchemaBase: h.schemaBase, Records: group})
	if err != nil {
		return fmt.Errorf("harvester %s: encoding payload: %w", h.name, err)
	}

	cmd := h.commandFunc(ctx, argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(body)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("harvester %s: %w: %s", h.name, err, stderr.String())
	}

	return nil
}

var _ harvester.Harvester = (*Harvester)(nil)
