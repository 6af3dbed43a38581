package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/ingestpipe/ingestpipe/internal/audit"
	"github.com/ingestpipe/ingestpipe/internal/notify"
)

// Runtime drives one handler instance through the fixed phase sequence
// (spec.md §2): initialise, resolve, preprocess, check, process, publish,
// postprocess, notify. An instance executes exactly once.
type Runtime struct {
	Handler   Handler
	State     *HandlerState
	Logger    *slog.Logger
	Audit     *audit.Ledger // nil-safe: audit is best-effort
	Notifier  notify.Notifier
	Publisher *Publisher

	ran atomic.Bool
}

// Execute runs the handler to completion, always finishing with notify
// regardless of outcome. Re-entering Execute on the same Runtime is
// rejected with ErrAlreadyExecuted (spec.md §4.1: "Re-entering execute()
// on the same instance is rejected").
func (r *Runtime) Execute(ctx context.Context) (Result, error) {
	if !r.ran.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyExecuted
	}

	logger := r.logger()
	st := r.State

	logger.Info("handler starting", "handler", st.HandlerName, "input", st.InputPath, "id", st.ID)

	startedAt := time.Now()
	st.Disposition = r.run(ctx, logger)
	finishedAt := time.Now()

	result := Result{
		HandlerName: st.HandlerName,
		InputPath:   st.InputPath,
		Disposition: st.Disposition,
		Err:         st.PhaseErr,
		Files:       summarize(st.Files),
		Warnings:    st.Warnings,
	}

	if st.Disposition != DispositionSuccess {
		r.copyToErrorSink(ctx, logger, st)
	}

	r.notify(ctx, logger, result)
	r.recordAudit(ctx, logger, result, startedAt, finishedAt)

	if st.ScratchDir != "" {
		if err := os.RemoveAll(st.ScratchDir); err != nil {
			logger.Warn("scratch cleanup failed", "dir", st.ScratchDir, "error", err)
		}
	}

	return result, st.PhaseErr
}

// run walks the seven phases before notify in order, stopping at the first failure or
// at cancellation, and returns the terminal disposition. notify is not
// run here: the caller always runs it exactly once, on every path.
func (r *Runtime) run(ctx context.Context, logger *slog.Logger) Disposition {
	phases := []struct {
		phase Phase
		fn    func(context.Context) error
	}{
		{PhaseInitialise, r.initialise},
		{PhaseResolve, r.resolve},
		{PhasePreprocess, r.preprocess},
		{PhaseCheck, r.checkPhase},
		{PhaseProcess, r.process},
		{PhasePublish, r.publish},
		{PhasePostprocess, r.postprocess},
	}

	for _, p := range phases {
		if r.State.cancelled() {
			r.State.Phase = p.phase
			logger.Info("handler cancelled", "phase", p.phase)

			return DispositionCancelled
		}

		if err := r.runPhase(ctx, p.phase, p.fn, logger); err != nil {
			r.State.Phase = PhaseFailed
			r.State.PhaseErr = err

			if KindOf(err) == KindCheckFailure {
				return DispositionCheckFailed
			}

			return DispositionFailed
		}
	}

	r.State.Phase = PhaseSucceeded

	return DispositionSuccess
}

// runPhase invokes fn, recovering a panic as an invariant_violation so a
// handler hook's bug cannot take down the process running it.
func (r *Runtime) runPhase(ctx context.Context, phase Phase, fn func(context.Context) error, logger *slog.Logger) (err error) {
	r.State.Phase = phase

	defer func() {
		if rec := recover(); rec != nil {
			err = NewError(KindInvariantViolation, phase.String(), fmt.Errorf("panic: %v", rec))
		}
	}()

	if ferr := fn(ctx); ferr != nil {
		logger.Error("phase failed", "phase", phase, "error", ferr)

		return ferr
	}

	return nil
}

func (r *Runtime) initialise(ctx context.Context) error {
	st := r.State

	scratchRoot := st.Config.Global.ScratchRoot
	if scratchRoot == "" {
		scratchRoot = os.TempDir()
	}

	if err := os.MkdirAll(scratchRoot, 0o755); err != nil {
		return NewError(KindInvalidInput, "initialise", err)
	}

	dir, err := os.MkdirTemp(scratchRoot, "ingestpipe-"+st.ID.String()+"-")
	if err != nil {
		return NewError(KindInvalidInput, "initialise", err)
	}

	st.ScratchDir = dir

	if _, err := os.Stat(st.InputPath); err != nil {
		return NewError(KindInvalidInput, "initialise", fmt.Errorf("input unreadable: %w", err))
	}

	return nil
}

func (r *Runtime) resolve(ctx context.Context) error {
	return resolve(r.State, r.Handler.ResolveOptions())
}

func (r *Runtime) preprocess(ctx context.Context) error {
	if err := r.Handler.Preprocess(ctx, r.State); err != nil {
		return NewError(KindHandlerHookError, "preprocess", err)
	}

	r.assignDestPaths()

	return nil
}

func (r *Runtime) assignDestPaths() {
	for _, f := range r.State.Files.All() {
		if f.DestPath == "" {
			f.DestPath = r.Handler.DestPath(f)
		}
	}
}

func (r *Runtime) checkPhase(ctx context.Context) error {
	opts := r.Handler.CheckOptions()

	if err := check(r.State, opts); err != nil {
		return err
	}

	if !anyCheckFailed(r.State.Files) {
		return nil
	}

	if opts.ContinueOnFailure {
		for _, f := range r.State.Files.View(func(f *PipelineFile) bool { return f.CheckPassed == CheckFailed }) {
			r.State.Warnings = append(r.State.Warnings,
				fmt.Sprintf("%s: %s", f.SourcePath, f.CheckDiagnostic))
		}

		return nil
	}

	return NewError(KindCheckFailure, "check", ErrCheckFailedCannotPublish)
}

func (r *Runtime) process(ctx context.Context) error {
	if err := r.Handler.Process(ctx, r.State); err != nil {
		return NewError(KindHandlerHookError, "process", err)
	}

	return nil
}

func (r *Runtime) publish(ctx context.Context) error {
	if r.Publisher == nil {
		return nil
	}

	return r.Publisher.Publish(ctx, r.State)
}

func (r *Runtime) postprocess(ctx context.Context) error {
	if err := r.Handler.Postprocess(ctx, r.State); err != nil {
		return NewError(KindHandlerHookError, "postprocess", err)
	}

	return nil
}

// notify always runs, on every path out of run, and its own failure is
// logged but never surfaces as the handler's error (spec.md §4.6, §9
// Open Question 2: log-and-continue, not re-raise).
func (r *Runtime) notify(ctx context.Context, logger *slog.Logger, result Result) {
	if r.Notifier == nil {
		return
	}

	if err := r.Notifier.Send(ctx, notify.Payload{
		HandlerName: result.HandlerName,
		Disposition: string(result.Disposition),
		Files:       toNotifyFiles(result.Files),
		Warnings:    result.Warnings,
		Recipients:  r.Handler.Recipients(),
	}); err != nil {
		logger.Error("notify failed", "error", err)
	}
}

// copyToErrorSink runs the publisher's error-sink copy on a failed run,
// logging but not propagating a copy failure: the run's disposition is
// already final by the time this executes.
func (r *Runtime) copyToErrorSink(ctx context.Context, logger *slog.Logger, st *HandlerState) {
	if r.Publisher == nil {
		return
	}

	for _, err := range r.Publisher.CopyToErrorSink(ctx, st.Files.All()) {
		logger.Warn("error sink copy failed", "error", err)
	}
}

func toNotifyFiles(files []FileSummary) []notify.FileSummary {
	out := make([]notify.FileSummary, 0, len(files))

	for _, f := range files {
		out = append(out, notify.FileSummary{
			SourcePath:  f.SourcePath,
			CheckPassed: f.CheckPassed == CheckPassed,
			Diagnostic:  f.Diagnostic,
			PublishType: f.PublishType.String(),
			IsStored:    f.IsStored,
			IsArchived:  f.IsArchived,
			IsHarvested: f.IsHarvested,
		})
	}

	return out
}

func (r *Runtime) recordAudit(ctx context.Context, logger *slog.Logger, result Result, startedAt, finishedAt time.Time) {
	if r.Audit == nil {
		return
	}

	if err := r.Audit.Record(ctx, audit.Entry{
		ID:          r.State.ID.String(),
		HandlerName: result.HandlerName,
		InputPath:   result.InputPath,
		Disposition: string(result.Disposition),
		FileCount:   len(result.Files),
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		Duration:    finishedAt.Sub(startedAt),
	}); err != nil {
		logger.Error("audit record failed", "error", err)
	}
}

func (r *Runtime) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}

	return slog.Default()
}
