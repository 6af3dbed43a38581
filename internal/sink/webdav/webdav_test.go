package webdav

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingestpipe/ingestpipe/internal/sink"
)

func newTestSink(t *testing.T, handler http.HandlerFunc) (*Sink, func()) {
	t.Helper()

	srv := httptest.NewServer(handler)
	base, err := url.Parse(srv.URL)
	require.NoError(t, err)

	return New(base, srv.Client()), srv.Close
}

func TestPutUploadsFileContent(t *testing.T) {
	var received []byte

	s, closeSrv := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	})
	defer closeSrv()

	local := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(local, []byte("payload"), 0o644))

	require.NoError(t, s.Put(context.Background(), local, "a.txt"))
	assert.Equal(t, "payload", string(received))
}

func TestDeleteTreats404AsSuccess(t *testing.T) {
	s, closeSrv := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer closeSrv()

	require.NoError(t, s.Delete(context.Background(), "missing.txt"))
}

func TestQueryReportsExistence(t *testing.T) {
	s, closeSrv := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/present.txt" {
			w.WriteHeader(http.StatusOK)
			return
		}

		w.WriteHeader(http.StatusNotFound)
	})
	defer closeSrv()

	exists, err := s.Query(context.Background(), "present.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Query(context.Background(), "absent.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPutServerErrorIsTransient(t *testing.T) {
	s, closeSrv := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer closeSrv()

	local := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(local, []byte("x"), 0o644))

	err := s.Put(context.Background(), local, "a.txt")
	require.Error(t, err)
	assert.True(t, sink.IsTransient(err))
}

func TestPutClientErrorIsPermanent(t *testing.T) {
	s, closeSrv := newTestSink(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	defer closeSrv()

	local := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(local, []byte("x"), 0o644))

	err := s.Put(context.Background(), local, "a.txt")
	require.Error(t, err)
	assert.False(t, sink.IsTransient(err))
}
