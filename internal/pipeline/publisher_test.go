package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingestpipe/ingestpipe/internal/sink/harvester"
	"github.com/ingestpipe/ingestpipe/internal/sink/harvester/memharvester"
	"github.com/ingestpipe/ingestpipe/internal/sink/memsink"
)

func newPublishFile(t *testing.T, name, dest string, action PublishAction) *PipelineFile {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	return &PipelineFile{
		LocalPath:   path,
		SourcePath:  name,
		DestPath:    dest,
		ArchivePath: "archive/" + name,
		PublishType: action,
		CheckPassed: CheckPassed,
	}
}

func TestPublisherStoresAndArchivesAndHarvests(t *testing.T) {
	archive := memsink.New()
	store := memsink.New()
	h := memharvester.New("default", true)

	files := NewFileCollection()
	f := newPublishFile(t, "a.nc", "dest/a.nc", PublishArchive|PublishHarvestAdd|PublishUpload)
	require.NoError(t, files.Add(f))

	st := &HandlerState{Files: files}

	p := &Publisher{
		Archive:     archive,
		Store:       store,
		Harvesters:  map[string]harvester.Harvester{"default": h},
		Concurrency: 2,
	}

	require.NoError(t, p.Publish(context.Background(), st))

	assert.True(t, f.IsArchived)
	assert.True(t, f.IsHarvested)
	assert.True(t, f.IsStored)
	assert.Equal(t, 1, h.IngestCount())

	_, ok := store.Contents("dest/a.nc")
	assert.True(t, ok)
}

func TestPublisherRollsBackHarvestOnStoreFailure(t *testing.T) {
	store := memsink.New()
	h := memharvester.New("default", true)

	files := NewFileCollection()
	f := newPublishFile(t, "a.nc", "dest/a.nc", PublishHarvestAdd|PublishUpload)
	require.NoError(t, files.Add(f))

	store.FailPutOn = map[string]error{"dest/a.nc": errors.New("disk full")}

	st := &HandlerState{Files: files}

	p := &Publisher{
		Store:       store,
		Harvesters:  map[string]harvester.Harvester{"default": h},
		Concurrency: 1,
	}

	err := p.Publish(context.Background(), st)
	require.Error(t, err)

	assert.False(t, f.IsStored)
	assert.False(t, f.IsHarvested)
	assert.Len(t, h.Removed, 1)
}

func TestPublisherRecordsNotRollbackableWhenHarvesterCannotRemove(t *testing.T) {
	store := memsink.New()
	h := memharvester.New("default", false)

	files := NewFileCollection()
	f := newPublishFile(t, "a.nc", "dest/a.nc", PublishHarvestAdd|PublishUpload)
	require.NoError(t, files.Add(f))

	store.FailPutOn = map[string]error{"dest/a.nc": errors.New("disk full")}

	st := &HandlerState{Files: files}

	p := &Publisher{
		Store:      store,
		Harvesters: map[string]harvester.Harvester{"default": h},
	}

	err := p.Publish(context.Background(), st)
	require.Error(t, err)

	assert.True(t, f.IsHarvested) // rollback skipped: not rollbackable
	assert.Contains(t, f.PublishDiagnostic, "does not support removal")
}

func TestPublisherLateDeletionOrdersUploadBeforeDelete(t *testing.T) {
	store := memsink.New()

	files := NewFileCollection()
	f := newPublishFile(t, "a.nc", "dest/a.nc", PublishUpload|PublishDelete)
	f.LateDeletion = true
	f.DeleteTarget = "dest/a-old.nc"
	require.NoError(t, files.Add(f))

	st := &HandlerState{Files: files}

	p := &Publisher{Store: store}

	require.NoError(t, p.Publish(context.Background(), st))

	calls := store.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "put", calls[0].Op)
	assert.Equal(t, "dest/a.nc", calls[0].Remote)
	assert.Equal(t, "delete", calls[1].Op)
	assert.Equal(t, "dest/a-old.nc", calls[1].Remote)

	_, stillThere := store.Contents("dest/a-old.nc")
	assert.False(t, stillThere)

	_, newPresent := store.Contents("dest/a.nc")
	assert.True(t, newPresent)
}

func TestPublisherRejectsUploadAndDeleteWithoutLateDeletion(t *testing.T) {
	store := memsink.New()

	files := NewFileCollection()
	f := newPublishFile(t, "a.nc", "dest/a.nc", PublishUpload|PublishDelete)
	require.NoError(t, files.Add(f))

	st := &HandlerState{Files: files}

	p := &Publisher{Store: store}

	err := p.Publish(context.Background(), st)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLateDeletionRequired)
}

func TestPublisherArchiveFailureIsWarnOnlyByDefault(t *testing.T) {
	archive := memsink.New()
	archive.FailPutOn = map[string]error{"archive/a.nc": errors.New("timeout")}

	files := NewFileCollection()
	f := newPublishFile(t, "a.nc", "", PublishArchive)
	require.NoError(t, files.Add(f))

	st := &HandlerState{Files: files}

	p := &Publisher{Archive: archive}

	require.NoError(t, p.Publish(context.Background(), st))
	assert.False(t, f.IsArchived)
	assert.NotEmpty(t, f.PublishDiagnostic)
}

func TestPublisherArchiveFailureIsFatalWhenConfigured(t *testing.T) {
	archive := memsink.New()
	archive.FailPutOn = map[string]error{"archive/a.nc": errors.New("timeout")}

	files := NewFileCollection()
	f := newPublishFile(t, "a.nc", "", PublishArchive)
	require.NoError(t, files.Add(f))

	st := &HandlerState{Files: files}

	p := &Publisher{Archive: archive, ArchiveFatal: true}

	err := p.Publish(context.Background(), st)
	require.Error(t, err)
	assert.Equal(t, KindSinkPermanent, KindOf(err))
}

func TestPublisherSkipsFilesThatFailedCheck(t *testing.T) {
	store := memsink.New()

	files := NewFileCollection()
	f := newPublishFile(t, "a.nc", "dest/a.nc", PublishUpload)
	f.CheckPassed = CheckFailed
	require.NoError(t, files.Add(f))

	st := &HandlerState{Files: files}

	p := &Publisher{Store: store}

	require.NoError(t, p.Publish(context.Background(), st))
	assert.False(t, f.IsStored)
	assert.Empty(t, store.Calls())
}

func TestCopyToErrorSinkUploadsFailedAndIncompleteFiles(t *testing.T) {
	errSink := memsink.New()

	failed := newPublishFile(t, "bad.csv", "", PublishNone)
	failed.CheckPassed = CheckFailed

	incomplete := newPublishFile(t, "partial.nc", "dest/partial.nc", PublishUpload)
	// never marked stored: simulates a run that failed before storePhase ran

	clean := newPublishFile(t, "ok.csv", "dest/ok.csv", PublishUpload)
	clean.MarkStored()

	p := &Publisher{ErrorSink: errSink}

	errs := p.CopyToErrorSink(context.Background(), []*PipelineFile{failed, incomplete, clean})
	require.Empty(t, errs)

	calls := errSink.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "bad.csv", calls[0].Remote)
	assert.Equal(t, "partial.nc", calls[1].Remote)
}

func TestCopyToErrorSinkIsNoopWithoutConfiguredSink(t *testing.T) {
	failed := newPublishFile(t, "bad.csv", "", PublishNone)
	failed.CheckPassed = CheckFailed

	p := &Publisher{}

	assert.Empty(t, p.CopyToErrorSink(context.Background(), []*PipelineFile{failed}))
}

func TestCopyToErrorSinkReportsPutFailures(t *testing.T) {
	errSink := memsink.New()
	errSink.FailPutOn = map[string]error{"bad.csv": errors.New("boom")}

	failed := newPublishFile(t, "bad.csv", "", PublishNone)
	failed.CheckPassed = CheckFailed

	p := &Publisher{ErrorSink: errSink}

	errs := p.CopyToErrorSink(context.Background(), []*PipelineFile{failed})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "bad.csv")
}
