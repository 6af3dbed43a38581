package pipeline

import (
	"github.com/google/uuid"

	"github.com/ingestpipe/ingestpipe/internal/config"
)

// Phase identifies a step in the fixed execution order.
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseInitialise
	PhaseResolve
	PhasePreprocess
	PhaseCheck
	PhaseProcess
	PhasePublish
	PhasePostprocess
	PhaseNotify
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseInitialise:
		return "initialise"
	case PhaseResolve:
		return "resolve"
	case PhasePreprocess:
		return "preprocess"
	case PhaseCheck:
		return "check"
	case PhaseProcess:
		return "process"
	case PhasePublish:
		return "publish"
	case PhasePostprocess:
		return "postprocess"
	case PhaseNotify:
		return "notify"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Disposition is the terminal outcome of one handler execution.
type Disposition string

const (
	DispositionSuccess     Disposition = "success"
	DispositionCheckFailed Disposition = "check_failed"
	DispositionFailed      Disposition = "failed"
	DispositionCancelled   Disposition = "cancelled"
)

// HandlerState is the runtime's own record for a single execution: input
// path, phase cursor, per-phase error, the file collection it threads
// through every phase, a scratch directory, the configuration view, and
// handler-supplied parameters.
type HandlerState struct {
	// ID uniquely identifies this execution, used by the audit ledger and
	// by notification payloads to correlate a run across logs.
	ID uuid.UUID

	HandlerName string
	InputPath   string

	Phase       Phase
	PhaseErr    error
	Disposition Disposition

	Files      *FileCollection
	ScratchDir string

	Config *config.Config
	Params map[string]any

	// Cancel is checked at the top of every phase in Execute's loop. A
	// closed channel causes the run to jump straight to notify with
	// DispositionCancelled without starting the next phase.
	Cancel <-chan struct{}

	// Warnings accumulates non-fatal diagnostics, e.g. check failures
	// excluded under CheckOptions.ContinueOnFailure.
	Warnings []string
}

// NewHandlerState builds a fresh state for one execution of handlerName
// against inputPath.
func NewHandlerState(handlerName, inputPath string, cfg *config.Config, cancel <-chan struct{}) *HandlerState {
	return &HandlerState{
		ID:          uuid.New(),
		HandlerName: handlerName,
		InputPath:   inputPath,
		Phase:       PhaseCreated,
		Files:       NewFileCollection(),
		Config:      cfg,
		Params:      make(map[string]any),
		Cancel:      cancel,
	}
}

func (s *HandlerState) cancelled() bool {
	if s.Cancel == nil {
		return false
	}

	select {
	case <-s.Cancel:
		return true
	default:
		return false
	}
}
