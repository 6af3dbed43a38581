// Package localfs implements a sink.Sink backed by the local filesystem,
// selected for "file://" URIs. Put always copies rather than moves: the
// same local scratch file commonly serves both the archive and store
// sinks in one publish (spec.md §4.5), so Put must never consume its
// source. The destination itself is still written atomically, via
// copy-then-rename into place, grounded on the tvarr publish stage's
// copyThenRename.
package localfs

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/ingestpipe/ingestpipe/internal/sink"
)

func init() {
	sink.Register("file", open)
}

func open(_ context.Context, u *url.URL) (sink.Sink, error) {
	root := u.Path
	if root == "" {
		root = "/"
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("localfs: creating root %s: %w", root, err)
	}

	return &Sink{root: root}, nil
}

// Sink roots every remote path under a base directory.
type Sink struct {
	root string
}

// New constructs a Sink rooted at root directly, bypassing URI parsing —
// used by tests and by callers that already resolved a filesystem path.
func New(root string) *Sink {
	return &Sink{root: root}
}

func (s *Sink) resolve(remote string) string {
	return filepath.Join(s.root, filepath.Clean(string(filepath.Separator)+remote))
}

// Put copies local to the path remote names under the sink root. It never
// renames local itself into place: the caller may still need that same
// scratch file for another sink in the same publish.
func (s *Sink) Put(_ context.Context, local, remote string) error {
	dest := s.resolve(remote)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return sink.Permanent("put", fmt.Errorf("creating parent dir: %w", err))
	}

	return copyThenRename(local, dest)
}

func copyThenRename(local, dest string) error {
	tmp := dest + ".tmp"

	src, err := os.Open(local)
	if err != nil {
		return sink.Permanent("put", fmt.Errorf("opening source: %w", err))
	}
	defer src.Close()

	out, err := os.Create(tmp)
	if err != nil {
		return sink.Permanent("put", fmt.Errorf("creating temp file: %w", err))
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(tmp)

		return sink.Transient("put", fmt.Errorf("copying content: %w", err))
	}

	if err := out.Close(); err != nil {
		os.Remove(tmp)

		return sink.Transient("put", fmt.Errorf("closing temp file: %w", err))
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)

		return sink.Permanent("put", fmt.Errorf("renaming to final path: %w", err))
	}

	return nil
}

// Delete removes remote. Absence is not an error.
func (s *Sink) Delete(_ context.Context, remote string) error {
	if err := os.Remove(s.resolve(remote)); err != nil && !os.IsNotExist(err) {
		return sink.Transient("delete", err)
	}

	return nil
}

// Query reports whether remote exists under the sink root.
func (s *Sink) Query(_ context.Context, remote string) (bool, error) {
	_, err := os.Stat(s.resolve(remote))
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, sink.Transient("query", err)
}

// Close is a no-op: localfs holds no pooled resources.
func (s *Sink) Close() error { return nil }

var _ sink.Sink = (*Sink)(nil)
