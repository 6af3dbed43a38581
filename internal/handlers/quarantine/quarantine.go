// Package quarantine is an illustrative Handler that accepts any
// submission, continuing past check failures instead of stopping: bad
// files are left unpublished and flagged in the result's warnings, and a
// mix of good and bad files still ends in DispositionSuccess. Demonstrates CheckOptions.ContinueOnFailure.
package quarantine

import (
	"context"
	"path"

	"github.com/ingestpipe/ingestpipe/internal/pipeline"
)

// Name is the handler's registration key.
const Name = "quarantine"

// Handler publishes only the files that passed their check; failed files
// are left unpublished and recorded as warnings by the runtime.
type Handler struct {
	pipeline.NoopHooks

	destPrefix string
}

// New constructs a quarantine Handler.
func New(destPrefix string) *Handler {
	return &Handler{destPrefix: destPrefix}
}

func (h *Handler) Name() string { return Name }

func (h *Handler) CheckOptions() pipeline.CheckOptions {
	return pipeline.CheckOptions{ContinueOnFailure: true}
}

// Process flags only the files that passed their check for upload; files
// that failed remain with PublishNone and are surfaced as warnings by
// the runtime's check phase rather than aborting the run.
func (h *Handler) Process(_ context.Context, st *pipeline.HandlerState) error {
	for _, f := range st.Files.View(func(f *pipeline.PipelineFile) bool { return f.CanPublish() }) {
		f.PublishType = pipeline.PublishUpload
	}

	return nil
}

func (h *Handler) DestPath(f *pipeline.PipelineFile) string {
	return path.Join(h.destPrefix, f.SourcePath)
}

var _ pipeline.Handler = (*Handler)(nil)

// Factory adapts New into a pipeline.HandlerFactory for Registry.Register.
func Factory(destPrefix string) pipeline.HandlerFactory {
	return func() pipeline.Handler { return New(destPrefix) }
}
