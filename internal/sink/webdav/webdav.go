// Package webdav implements a sink.Sink backed by a WebDAV server,
// selected for "webdav://" and "webdavs://" URIs. No example repository in
// the retrieval pack imports a WebDAV client library (see DESIGN.md), so
// this backend speaks the small subset of the protocol it needs — PUT,
// DELETE, HEAD — directly over net/http.
package webdav

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/ingestpipe/ingestpipe/internal/sink"
)

// clientTimeout bounds every request end to end, including the body
// transfer of a Put; context cancellation can end a request sooner.
const clientTimeout = 30 * time.Second

func init() {
	sink.Register("webdav", open)
	sink.Register("webdavs", open)
}

func open(_ context.Context, u *url.URL) (sink.Sink, error) {
	scheme := "http"
	if u.Scheme == "webdavs" {
		scheme = "https"
	}

	base := &url.URL{Scheme: scheme, Host: u.Host, Path: u.Path, User: u.User}

	return New(base, &http.Client{Timeout: clientTimeout}), nil
}

// Sink is a WebDAV-backed sink.Sink.
type Sink struct {
	base   *url.URL
	client *http.Client
}

// New constructs a Sink rooted at base, using client for requests.
func New(base *url.URL, client *http.Client) *Sink {
	return &Sink{base: base, client: client}
}

func (s *Sink) resolve(remote string) string {
	u := *s.base
	u.Path = path.Join(u.Path, remote)

	return u.String()
}

// Put uploads local's content to remote via HTTP PUT.
func (s *Sink) Put(ctx context.Context, local, remote string) error {
	f, err := os.Open(local)
	if err != nil {
		return sink.Permanent("put", fmt.Errorf("opening local file: %w", err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return sink.Permanent("put", fmt.Errorf("stat local file: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.resolve(remote), f)
	if err != nil {
		return sink.Permanent("put", err)
	}

	req.ContentLength = info.Size()

	return s.do(req, "put")
}

// Delete removes remote via HTTP DELETE. A 404 response is treated as
// success (idempotent delete, spec.md §8 round-trip property).
func (s *Sink) Delete(ctx context.Context, remote string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.resolve(remote), nil)
	if err != nil {
		return sink.Permanent("delete", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return sink.Transient("delete", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode < 300 {
		return nil
	}

	return classifyStatus("delete", resp.StatusCode)
}

// Query reports existence via HTTP HEAD.
func (s *Sink) Query(ctx context.Context, remote string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.resolve(remote), nil)
	if err != nil {
		return false, sink.Permanent("query", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false, sink.Transient("query", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode < 300:
		return true, nil
	default:
		return false, classifyStatus("query", resp.StatusCode)
	}
}

// Close is a no-op: the shared http.Client has no per-sink handle.
func (s *Sink) Close() error { return nil }

func (s *Sink) do(req *http.Request, op string) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return sink.Transient(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		return nil
	}

	return classifyStatus(op, resp.StatusCode)
}

func classifyStatus(op string, code int) error {
	err := fmt.Errorf("webdav: unexpected status %d", code)
	if code == http.StatusTooManyRequests || code >= 500 {
		return sink.Transient(op, err)
	}

	return sink.Permanent(op, err)
}

var _ sink.Sink = (*Sink)(nil)
