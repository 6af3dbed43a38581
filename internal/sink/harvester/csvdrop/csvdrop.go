// Package csvdrop implements the "CSV-drop" harvester invocation strategy
// named in spec.md §6: instead of invoking a process, each group is
// appended as rows to a CSV file under a configured directory, for tools
// that poll a directory rather than accept a subprocess call.
package csvdrop

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ingestpipe/ingestpipe/internal/sink/harvester"
)

var header = []string{"timestamp", "op", "local_path", "source_path", "dest_path", "checksum", "mime_type", "size"}

// Harvester drops ingest/removal records as CSV rows into configDir,
// one file per harvester per day.
type Harvester struct {
	name        string
	configDir   string
	removalOK   bool
	nowFunc     func() time.Time
}

// New constructs a csvdrop Harvester writing under configDir. removalOK
// reports whether this harvester's consumer acts on "remove" rows; if
// false, Remove returns an error rather than writing an entry nobody reads.
func New(name, configDir string, removalOK bool, nowFunc func() time.Time) *Harvester {
	return &Harvester{name: name, configDir: configDir, removalOK: removalOK, nowFunc: nowFunc}
}

func (h *Harvester) Name() string { return h.name }

func (h *Harvester) SupportsRemoval() bool { return h.removalOK }

func (h *Harvester) Ingest(ctx context.Context, group []harvester.Record) error {
	return h.append("ingest", group)
}

func (h *Harvester) Remove(ctx context.Context, group []harvester.Record) error {
	if !h.removalOK {
		return fmt.Errorf("harvester %s: csv-drop removal not configured", h.name)
	}

	return h.append("remove", group)
}

func (h *Harvester) append(op string, group []harvester.Record) error {
	if err := os.MkdirAll(h.configDir, 0o755); err != nil {
		return fmt.Errorf("harvester %s: creating config dir: %w", h.name, err)
	}

	now := h.nowFunc()
	path := filepath.Join(h.configDir, fmt.Sprintf("%s-%s.csv", h.name, now.Format("2006-01-02")))

	existing, err := os.Stat(path)
	needsHeader := err != nil || existing.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("harvester %s: opening drop file: %w", h.name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if needsHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("harvester %s: writing header: %w", h.name, err)
		}
	}

	for _, rec := range group {
		row := []string{
			now.Format(time.RFC3339),
			op,
			rec.LocalPath,
			rec.SourcePath,
			rec.DestPath,
			rec.Checksum,
			rec.MimeType,
			strconv.FormatInt(rec.Size, 10),
		}

		if err := w.Write(row); err != nil {
			return fmt.Errorf("harvester %s: writing row: %w", h.name, err)
		}
	}

	w.Flush()

	return w.Error()
}

var _ harvester.Harvester = (*Harvester)(nil)
