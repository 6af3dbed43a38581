package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingestpipe/ingestpipe/internal/config"
	notifylog "github.com/ingestpipe/ingestpipe/internal/notify/log"
	"github.com/ingestpipe/ingestpipe/internal/sink/harvester"
	"github.com/ingestpipe/ingestpipe/internal/sink/harvester/memharvester"
	"github.com/ingestpipe/ingestpipe/internal/sink/memsink"
)

// stubHandler is a minimal Handler for runtime tests. Each hook field,
// when set, is invoked in place of a no-op.
type stubHandler struct {
	NoopHooks

	name           string
	processErr     error
	destFn         func(f *PipelineFile) string
	resolveOptions ResolveOptions
	checkOptions   CheckOptions
}

func (s *stubHandler) Name() string { return s.name }

func (s *stubHandler) Process(ctx context.Context, st *HandlerState) error {
	return s.processErr
}

func (s *stubHandler) DestPath(f *PipelineFile) string {
	if s.destFn != nil {
		return s.destFn(f)
	}

	return "dest/" + f.SourcePath
}

func (s *stubHandler) ResolveOptions() ResolveOptions { return s.resolveOptions }
func (s *stubHandler) CheckOptions() CheckOptions     { return s.checkOptions }

func newTestRuntime(t *testing.T, inputPath string, h Handler, pub *Publisher) *Runtime {
	t.Helper()

	scratchRoot := t.TempDir()
	cfg := &config.Config{Global: config.GlobalConfig{ScratchRoot: scratchRoot}}
	st := NewHandlerState(h.Name(), inputPath, cfg, nil)
	st.ID = uuid.New()

	return &Runtime{
		Handler:   h,
		State:     st,
		Notifier:  notifylog.New(nil),
		Publisher: pub,
	}
}

func writeInput(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "good.nc")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestExecuteSingleFileComplianceSuccess(t *testing.T) {
	input := writeInput(t, "CDFdata")

	store := memsink.New()
	archive := memsink.New()
	h := memharvester.New("default", true)

	handler := &stubHandler{
		name:         "netcdf-ingest",
		checkOptions: CheckOptions{ComplianceSuites: []string{"magic_bytes"}},
	}

	pub := &Publisher{
		Archive:    archive,
		Store:      store,
		Harvesters: map[string]harvester.Harvester{"default": h},
	}

	r := newTestRuntime(t, input, handler, pub)

	result, err := r.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispositionSuccess, result.Disposition)
	assert.Len(t, result.Files, 1)
	assert.Equal(t, CheckPassed, result.Files[0].CheckPassed)
}

func TestExecuteManifestWithOneFailingFileFailsFast(t *testing.T) {
	dir := t.TempDir()

	// A manifest of one good CSV and one empty CSV (fails the structural
	// CSV tier, which finds no header row).
	good := filepath.Join(dir, "a.csv")
	bad := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(good, []byte("1,2\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(""), 0o644))

	manifest := filepath.Join(dir, "pair.manifest")
	require.NoError(t, os.WriteFile(manifest, []byte(good+"\n"+bad+"\n"), 0o644))

	handler := &stubHandler{name: "quarantine"}

	r := newTestRuntime(t, manifest, handler, nil)

	result, err := r.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, DispositionCheckFailed, result.Disposition)
	assert.Equal(t, KindCheckFailure, KindOf(err))
}

func TestExecuteCheckFailureCopiesFailedFileToErrorSink(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "a.csv")
	bad := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(good, []byte("1,2\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(""), 0o644))

	manifest := filepath.Join(dir, "pair.manifest")
	require.NoError(t, os.WriteFile(manifest, []byte(good+"\n"+bad+"\n"), 0o644))

	handler := &stubHandler{name: "quarantine"}

	errSink := memsink.New()
	pub := &Publisher{ErrorSink: errSink}

	r := newTestRuntime(t, manifest, handler, pub)

	result, err := r.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, DispositionCheckFailed, result.Disposition)

	calls := errSink.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, bad, calls[0].Remote)
}

func TestExecuteHandlerHookRaiseStopsBeforePublish(t *testing.T) {
	input := writeInput(t, "CDFdata")

	store := memsink.New()

	handler := &stubHandler{name: "broken", processErr: errors.New("boom")}

	pub := &Publisher{Store: store}

	r := newTestRuntime(t, input, handler, pub)

	result, err := r.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, DispositionFailed, result.Disposition)
	assert.Equal(t, KindHandlerHookError, KindOf(err))
	assert.Empty(t, store.Calls())
}

func TestExecuteRejectsReEntry(t *testing.T) {
	input := writeInput(t, "CDFdata")
	handler := &stubHandler{name: "once"}

	r := newTestRuntime(t, input, handler, nil)

	_, err := r.Execute(context.Background())
	require.NoError(t, err)

	_, err = r.Execute(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyExecuted)
}

func TestExecuteContinueOnFailureCompletesAsSuccessWithWarnings(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.csv")
	bad := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(good, []byte("1,2\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(""), 0o644))

	manifest := filepath.Join(dir, "pair.manifest")
	require.NoError(t, os.WriteFile(manifest, []byte(good+"\n"+bad+"\n"), 0o644))

	handler := &stubHandler{name: "quarantine", checkOptions: CheckOptions{ContinueOnFailure: true}}

	store := memsink.New()
	pub := &Publisher{Store: store}

	r := newTestRuntime(t, manifest, handler, pub)

	result, err := r.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispositionSuccess, result.Disposition)
	assert.NotEmpty(t, result.Warnings)
}

func TestExecuteEmptyManifestSucceedsWithEmptySummary(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "empty.manifest")
	require.NoError(t, os.WriteFile(manifest, []byte(""), 0o644))

	handler := &stubHandler{name: "empty"}

	r := newTestRuntime(t, manifest, handler, nil)

	result, err := r.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispositionSuccess, result.Disposition)
	assert.Empty(t, result.Files)
}

func TestExecuteManifestMissingEntryFails(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "bad.manifest")
	require.NoError(t, os.WriteFile(manifest, []byte(filepath.Join(dir, "missing.csv")+"\n"), 0o644))

	handler := &stubHandler{name: "x"}

	r := newTestRuntime(t, manifest, handler, nil)

	result, err := r.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, DispositionFailed, result.Disposition)
	assert.Equal(t, KindResolveFailure, KindOf(err))
}

func TestExecuteCancelledBeforeNextPhaseJumpsToNotify(t *testing.T) {
	input := writeInput(t, "x")
	handler := &stubHandler{name: "cancel-me"}

	cancel := make(chan struct{})
	close(cancel)

	cfg := &config.Config{Global: config.GlobalConfig{ScratchRoot: t.TempDir()}}
	st := NewHandlerState(handler.Name(), input, cfg, cancel)

	r := &Runtime{Handler: handler, State: st, Notifier: notifylog.New(nil)}

	result, err := r.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DispositionCancelled, result.Disposition)
}
