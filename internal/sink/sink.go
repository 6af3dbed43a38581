// Package sink defines the Store and Archive boundary interface from
// spec.md §6 — uniform URI-addressed put/delete/query operations — and
// dispatches a configured URI to the backend implementation selected by
// its scheme, the way marmos91/dittofs selects a metadata-store backend
// by driver name.
package sink

import (
	"context"
	"fmt"
	"net/url"
)

// Sink is the uniform interface both the store and archive roles use.
// spec.md §6 specifies them as the same shape; which role a given Sink
// instance plays is a matter of which config URI constructed it.
type Sink interface {
	// Put transfers the local file to remote. Implementations must leave
	// no partial object visible at remote on failure (replace atomically
	// where the backend allows it).
	Put(ctx context.Context, local, remote string) error
	// Delete removes remote. Deleting an already-absent object is not an
	// error (idempotent, matching spec.md §8's round-trip property:
	// put-then-delete leaves Query reporting not-exists).
	Delete(ctx context.Context, remote string) error
	// Query reports whether remote currently exists.
	Query(ctx context.Context, remote string) (exists bool, err error)
	// Close releases any pooled resources (network connections, handles).
	Close() error
}

// Opener constructs a Sink from a parsed URI. Backends register themselves
// in schemes at package init time.
type Opener func(ctx context.Context, u *url.URL) (Sink, error)

var schemes = map[string]Opener{}

// Register associates a URI scheme with an Opener. Called from each
// backend package's init().
func Register(scheme string, open Opener) {
	schemes[scheme] = open
}

// Open parses rawURI and dispatches to the backend registered for its
// scheme. Backends are selected purely by scheme, per spec.md §6.
func Open(ctx context.Context, rawURI string) (Sink, error) {
	if rawURI == "" {
		return nil, fmt.Errorf("sink: empty URI")
	}

	u, err := url.Parse(rawURI)
	if err != nil {
		return nil, fmt.Errorf("sink: parsing URI %q: %w", rawURI, err)
	}

	open, ok := schemes[u.Scheme]
	if !ok {
		return nil, fmt.Errorf("sink: no backend registered for scheme %q", u.Scheme)
	}

	return open(ctx, u)
}
