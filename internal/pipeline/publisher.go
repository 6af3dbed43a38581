// Publish order is archive, then harvest, then store — deliberately, and
// it must not be reordered. Harvest-before-store would expose a catalog
// entry pointing at an object that does not exist yet; store-before-harvest
// would expose an object no catalog references yet. Archive-harvest-store
// accepts a brief pre-store window where the catalog entry exists without
// the object, and the harvest-rollback-on-store-failure rule below shrinks
// that exposure to the failure case alone (spec.md §4.5).
package pipeline

import (
	"context"
	"fmt"
	"sync"

	isink "github.com/ingestpipe/ingestpipe/internal/sink"
	"github.com/ingestpipe/ingestpipe/internal/sink/harvester"
)

// HarvesterFor assigns a file to a harvester by name, derived from
// dest_path or file-type rules (spec.md §4.5). A handler wires its own
// rule via Publisher.HarvesterFor; the default used when a handler sets
// none routes every file to a single harvester named "default".
type HarvesterFor func(f *PipelineFile) string

// Publisher drives per-file archive, harvest, and store side effects
// against external sinks, in that fixed order, with compensating
// deletion when a store failure follows a successful harvest.
type Publisher struct {
	Archive      isink.Sink
	Store        isink.Sink
	ErrorSink    isink.Sink
	Harvesters   map[string]harvester.Harvester
	HarvesterFor HarvesterFor
	Concurrency  int
	ArchiveFatal bool
}

// Publish runs the three publisher phases over st.Files, in order.
func (p *Publisher) Publish(ctx context.Context, st *HandlerState) error {
	publishable := st.Files.View(func(f *PipelineFile) bool { return f.CanPublish() })

	if err := p.archivePhase(ctx, publishable); err != nil {
		return err
	}

	if err := p.harvestPhase(ctx, publishable); err != nil {
		return err
	}

	return p.storePhase(ctx, publishable)
}

// CopyToErrorSink uploads every file that failed its check or never
// completed a flagged publish action to ErrorSink, keyed by its original
// source path, for operator inspection after a failed run (spec.md §6's
// "files may be moved to an error URI on failure"). Best-effort: a copy
// failure is returned to the caller to log, not retried, since the run's
// disposition has already been decided.
func (p *Publisher) CopyToErrorSink(ctx context.Context, files []*PipelineFile) []error {
	if p.ErrorSink == nil {
		return nil
	}

	var errs []error

	for _, f := range files {
		if f.LocalPath == "" || !f.FailedOrIncomplete() {
			continue
		}

		if err := p.ErrorSink.Put(ctx, f.LocalPath, f.SourcePath); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.SourcePath, err))
		}
	}

	return errs
}

func (p *Publisher) concurrency() int {
	if p.Concurrency < 1 {
		return 1
	}

	return p.Concurrency
}

func (p *Publisher) archivePhase(ctx context.Context, files []*PipelineFile) error {
	if p.Archive == nil {
		return nil
	}

	targets := filterFiles(files, func(f *PipelineFile) bool {
		return f.PublishType.Has(PublishArchive) && !f.IsArchived
	})

	errs := RunBounded(ctx, p.concurrency(), targets, func(ctx context.Context, f *PipelineFile) error {
		err := isink.WithRetry(ctx, "archive_put", func(ctx context.Context) error {
			return p.Archive.Put(ctx, f.LocalPath, f.ArchivePath)
		})
		if err != nil {
			f.PublishDiagnostic = err.Error()

			return err
		}

		f.MarkArchived()

		return nil
	})

	for _, err := range errs {
		if err == nil {
			continue
		}

		if p.ArchiveFatal {
			return NewError(KindSinkPermanent, "publish.archive", err)
		}
		// Archive is best-effort parallel durability when not configured
		// fatal; the per-file diagnostic above is the operator signal.
	}

	return nil
}

func (p *Publisher) harvestPhase(ctx context.Context, files []*PipelineFile) error {
	groups := groupByHarvester(files, p.harvesterFor())

	for _, group := range groups {
		if err := p.runHarvestGroup(ctx, group); err != nil {
			return err
		}
	}

	return nil
}

type harvestGroup struct {
	name      string
	additions []*PipelineFile
	deletions []*PipelineFile
}

func groupByHarvester(files []*PipelineFile, assign HarvesterFor) []*harvestGroup {
	var order []string

	byName := make(map[string]*harvestGroup)

	for _, f := range files {
		wantsAdd := f.PublishType.Has(PublishHarvestAdd)
		wantsDel := f.PublishType.Has(PublishHarvestDelete)

		if !wantsAdd && !wantsDel {
			continue
		}

		name := assign(f)

		g, ok := byName[name]
		if !ok {
			g = &harvestGroup{name: name}
			byName[name] = g
			order = append(order, name)
		}

		f.HarvestGroup = name

		if wantsAdd {
			g.additions = append(g.additions, f)
		}

		if wantsDel {
			g.deletions = append(g.deletions, f)
		}
	}

	out := make([]*harvestGroup, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}

	return out
}

// runHarvestGroup invokes additions then deletions against the named
// harvester — serialized, never concurrent with another group's call
// (spec.md §4.5 tie-break: harvesters are not assumed concurrency-safe).
func (p *Publisher) runHarvestGroup(ctx context.Context, group *harvestGroup) error {
	h, ok := p.Harvesters[group.name]
	if !ok {
		err := fmt.Errorf("no harvester registered for group %q", group.name)
		markHarvestFailure(group.additions, err)
		markHarvestFailure(group.deletions, err)

		return NewError(KindSinkPermanent, "publish.harvest", err)
	}

	if len(group.additions) > 0 {
		if err := h.Ingest(ctx, toRecords(group.additions, false)); err != nil {
			markHarvestFailure(group.additions, err)

			return NewError(KindSinkPermanent, "publish.harvest.ingest", err)
		}

		for _, f := range group.additions {
			f.MarkHarvested()
		}
	}

	if len(group.deletions) > 0 {
		if err := h.Remove(ctx, toRecords(group.deletions, true)); err != nil {
			markHarvestFailure(group.deletions, err)

			return NewError(KindSinkPermanent, "publish.harvest.remove", err)
		}

		for _, f := range group.deletions {
			f.MarkHarvested()
		}
	}

	return nil
}

func markHarvestFailure(files []*PipelineFile, err error) {
	for _, f := range files {
		f.PublishDiagnostic = err.Error()
	}
}

func toRecords(files []*PipelineFile, deletion bool) []harvester.Record {
	out := make([]harvester.Record, 0, len(files))

	for _, f := range files {
		out = append(out, harvester.Record{
			LocalPath:  f.LocalPath,
			SourcePath: f.SourcePath,
			DestPath:   f.DestPath,
			Checksum:   f.Checksum,
			MimeType:   f.MimeType,
			Size:       f.Size,
			IsDeletion: deletion,
		})
	}

	return out
}

func (p *Publisher) harvesterFor() HarvesterFor {
	if p.HarvesterFor != nil {
		return p.HarvesterFor
	}

	return func(*PipelineFile) string { return "default" }
}

func (p *Publisher) storePhase(ctx context.Context, files []*PipelineFile) error {
	if p.Store == nil {
		return nil
	}

	targets := filterFiles(files, func(f *PipelineFile) bool {
		return f.PublishType.Has(PublishUpload) || f.PublishType.Has(PublishDelete)
	})

	var mu sync.Mutex

	var rollbackGroups []string

	errs := RunBounded(ctx, p.concurrency(), targets, func(ctx context.Context, f *PipelineFile) error {
		if err := p.storeOneFile(ctx, f); err != nil {
			if f.IsHarvested {
				mu.Lock()
				rollbackGroups = append(rollbackGroups, f.HarvestGroup)
				mu.Unlock()
			}

			return err
		}

		return nil
	})

	var firstErr error

	for _, err := range errs {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		p.rollbackHarvest(ctx, dedupe(rollbackGroups), files)

		return NewError(KindSinkPermanent, "publish.store", firstErr)
	}

	return nil
}

// storeOneFile performs the upload and/or delete actions for one file.
// For late deletion, upload is confirmed before the prior artifact is
// removed (safe-replace: no window where neither the new nor old content
// is visible).
func (p *Publisher) storeOneFile(ctx context.Context, f *PipelineFile) error {
	if f.DestPath == "" && f.PublishType.Has(PublishUpload) {
		err := ErrDestPathRequired
		f.PublishDiagnostic = err.Error()

		return err
	}

	if f.PublishType.Has(PublishUpload) {
		err := isink.WithRetry(ctx, "store_put", func(ctx context.Context) error {
			return p.Store.Put(ctx, f.LocalPath, f.DestPath)
		})
		if err != nil {
			f.PublishDiagnostic = err.Error()

			return err
		}

		f.MarkStored()
	}

	if !f.PublishType.Has(PublishDelete) {
		return nil
	}

	if f.PublishType.Has(PublishUpload) && (!f.LateDeletion || f.DeleteTarget == "") {
		err := ErrLateDeletionRequired
		f.PublishDiagnostic = err.Error()

		return err
	}

	target := f.DestPath
	if f.LateDeletion && f.DeleteTarget != "" {
		target = f.DeleteTarget
	}

	err := isink.WithRetry(ctx, "store_delete", func(ctx context.Context) error {
		return p.Store.Delete(ctx, target)
	})
	if err != nil {
		f.PublishDiagnostic = err.Error()

		return err
	}

	if !f.PublishType.Has(PublishUpload) {
		f.MarkStored()
	}

	return nil
}

// rollbackHarvest submits a compensating removal for every member of the
// affected harvest groups that did not itself complete storage, undoing
// the harvest phase's catalog entries so store and harvest stay
// consistent (spec.md §4.5 atomicity rule).
func (p *Publisher) rollbackHarvest(ctx context.Context, groupNames []string, files []*PipelineFile) {
	for _, name := range groupNames {
		h, ok := p.Harvesters[name]
		if !ok || !h.SupportsRemoval() {
			markGroupNotRollbackable(files, name)

			continue
		}

		pending := filterFiles(files, func(f *PipelineFile) bool {
			return f.HarvestGroup == name && f.IsHarvested && !f.IsStored
		})
		if len(pending) == 0 {
			continue
		}

		if err := h.Remove(ctx, toRecords(pending, true)); err != nil {
			markHarvestFailure(pending, fmt.Errorf("rollback failed: %w", err))

			continue
		}

		for _, f := range pending {
			f.IsHarvested = false
			f.HarvestRollback = true
		}
	}
}

func markGroupNotRollbackable(files []*PipelineFile, groupName string) {
	for _, f := range files {
		if f.HarvestGroup != groupName {
			continue
		}

		f.PublishDiagnostic = ErrHarvestNotRollbackable.Error()
	}
}

func filterFiles(files []*PipelineFile, pred func(*PipelineFile) bool) []*PipelineFile {
	var out []*PipelineFile

	for _, f := range files {
		if pred(f) {
			out = append(out, f)
		}
	}

	return out
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))

	var out []string

	for _, n := range names {
		if seen[n] {
			continue
		}

		seen[n] = true

		out = append(out, n)
	}

	return out
}
