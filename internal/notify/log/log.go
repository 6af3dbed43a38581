// Package log is the trivial zero-config Notifier: it writes the payload
// to a structured logger instead of sending mail, used by tests and by
// any deployment that has not configured the mail section.
package log

import (
	"context"
	"log/slog"

	"github.com/ingestpipe/ingestpipe/internal/notify"
)

// Notifier logs each payload at Info level, one line per file plus a
// summary line, via the given slog.Logger.
type Notifier struct {
	Logger *slog.Logger
}

// New returns a log Notifier. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &Notifier{Logger: logger}
}

func (n *Notifier) Send(ctx context.Context, payload notify.Payload) error {
	n.Logger.Info("handler notification",
		"handler", payload.HandlerName,
		"disposition", payload.Disposition,
		"files", len(payload.Files),
		"warnings", len(payload.Warnings))

	for _, f := range payload.Files {
		n.Logger.Info("file outcome",
			"source_path", f.SourcePath,
			"check_passed", f.CheckPassed,
			"publish_type", f.PublishType,
			"is_stored", f.IsStored,
			"is_archived", f.IsArchived,
			"is_harvested", f.IsHarvested)
	}

	return nil
}

var _ notify.Notifier = (*Notifier)(nil)
