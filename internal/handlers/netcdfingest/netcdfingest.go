// Package netcdfingest is an illustrative Handler that publishes NetCDF
// submissions to the archive, a catalog harvester, and the store sink in
// one pass. It exists to demonstrate the capability pattern (only the
// hooks it needs are overridden; the rest fall through to
// pipeline.NoopHooks) and is not a real scientific validator — its
// compliance suite is the pack's illustrative MagicBytesSuite.
package netcdfingest

import (
	"context"
	"path"
	"regexp"

	"github.com/ingestpipe/ingestpipe/internal/pipeline"
)

// Name is the handler's registration key, matching a `pluggable.handlers`
// entry in the configuration document.
const Name = "netcdf-ingest"

var tempFileFilter = regexp.MustCompile(`\.(tmp|partial)$`)

// Handler publishes every resolved NetCDF file to destPrefix under the
// store sink, archiving and harvesting it in the same pass.
type Handler struct {
	pipeline.NoopHooks

	destPrefix string
	recipients []string
}

// New constructs a netcdf-ingest Handler. destPrefix is prepended to each
// file's source-relative path to build its store destination.
func New(destPrefix string) *Handler {
	return &Handler{destPrefix: destPrefix}
}

// WithRecipients sets the notification recipients for this handler
// instance, overriding the notifier's own configured default.
func (h *Handler) WithRecipients(recipients ...string) *Handler {
	h.recipients = recipients
	return h
}

func (h *Handler) Recipients() []string { return h.recipients }

func (h *Handler) Name() string { return Name }

func (h *Handler) ResolveOptions() pipeline.ResolveOptions {
	return pipeline.ResolveOptions{FilterRegex: tempFileFilter.String()}
}

func (h *Handler) CheckOptions() pipeline.CheckOptions {
	return pipeline.CheckOptions{ComplianceSuites: []string{"magic_bytes", "nonempty"}}
}

// Process flags every file that passed its check for archive, harvest
// addition, and upload — the full publish set spec.md §4.5 describes for
// a routine ingest.
func (h *Handler) Process(_ context.Context, st *pipeline.HandlerState) error {
	for _, f := range st.Files.View(func(f *pipeline.PipelineFile) bool { return f.CanPublish() }) {
		f.PublishType = pipeline.PublishArchive | pipeline.PublishHarvestAdd | pipeline.PublishUpload
		f.ArchivePath = path.Join("netcdf-ingest", f.SourcePath)
	}

	return nil
}

// DestPath places a file at destPrefix/<source path>, preserving the
// submission's internal directory structure.
func (h *Handler) DestPath(f *pipeline.PipelineFile) string {
	return path.Join(h.destPrefix, f.SourcePath)
}

var _ pipeline.Handler = (*Handler)(nil)

// Factory adapts New into a pipeline.HandlerFactory for Registry.Register.
func Factory(destPrefix string) pipeline.HandlerFactory {
	return func() pipeline.Handler { return New(destPrefix) }
}
