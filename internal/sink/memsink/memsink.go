// Package memsink is an in-memory sink.Sink used by tests in place of a
// real archive/store/harvester collaborator, standing in for the external
// sinks spec.md §1 declares out of scope.
package memsink

import (
	"context"
	"os"
	"sync"

	"github.com/ingestpipe/ingestpipe/internal/sink"
)

// Sink records Put/Delete/Query calls and their order, for assertions in
// publisher tests (e.g. "store failed after harvest succeeded").
type Sink struct {
	mu sync.Mutex

	objects map[string][]byte
	calls   []Call

	// FailPutOn and FailDeleteOn, if set, return the given error instead of
	// succeeding for the named remote path — used to simulate sink_transient
	// and sink_permanent failures deterministically.
	FailPutOn    map[string]error
	FailDeleteOn map[string]error
}

// Call records one invocation against the sink, in order.
type Call struct {
	Op     string // "put", "delete", "query"
	Remote string
}

// New returns an empty in-memory sink.
func New() *Sink {
	return &Sink{objects: make(map[string][]byte)}
}

func (s *Sink) Put(_ context.Context, local, remote string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Op: "put", Remote: remote})

	if err, ok := s.FailPutOn[remote]; ok {
		return err
	}

	data, err := os.ReadFile(local)
	if err != nil {
		return sink.Permanent("put", err)
	}

	s.objects[remote] = data

	return nil
}

func (s *Sink) Delete(_ context.Context, remote string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Op: "delete", Remote: remote})

	if err, ok := s.FailDeleteOn[remote]; ok {
		return err
	}

	delete(s.objects, remote)

	return nil
}

func (s *Sink) Query(_ context.Context, remote string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Op: "query", Remote: remote})

	_, ok := s.objects[remote]

	return ok, nil
}

func (s *Sink) Close() error { return nil }

// Calls returns a copy of every call made so far, in order.
func (s *Sink) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Call, len(s.calls))
	copy(out, s.calls)

	return out
}

// Contents returns the bytes stored at remote, and whether it is present.
func (s *Sink) Contents(remote string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[remote]

	return data, ok
}

var _ sink.Sink = (*Sink)(nil)
