package sink_test

import (
	"context"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingestpipe/ingestpipe/internal/sink"
)

// fakeSink is a minimal sink.Sink that counts Close calls, registered
// under a scheme unique to this test file so it never collides with a
// real backend's registration.
type fakeSink struct {
	closed *atomic.Int32
}

func (f *fakeSink) Put(context.Context, string, string) error   { return nil }
func (f *fakeSink) Delete(context.Context, string) error        { return nil }
func (f *fakeSink) Query(context.Context, string) (bool, error) { return false, nil }
func (f *fakeSink) Close() error                                { f.closed.Add(1); return nil }

var fakeOpenCount atomic.Int32

func init() {
	sink.Register("pooltest", func(_ context.Context, u *url.URL) (sink.Sink, error) {
		fakeOpenCount.Add(1)
		return &fakeSink{closed: &atomic.Int32{}}, nil
	})
}

func TestPoolGetCachesByFullURI(t *testing.T) {
	p := sink.NewPool()

	before := fakeOpenCount.Load()

	s1, err := p.Get(context.Background(), "pooltest://bucket/archive")
	require.NoError(t, err)

	s2, err := p.Get(context.Background(), "pooltest://bucket/archive")
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, before+1, fakeOpenCount.Load(), "second Get must not reopen")
}

func TestPoolGetDoesNotCoalesceSameHostDifferentPath(t *testing.T) {
	p := sink.NewPool()

	archive, err := p.Get(context.Background(), "pooltest://bucket/archive")
	require.NoError(t, err)

	store, err := p.Get(context.Background(), "pooltest://bucket/store")
	require.NoError(t, err)

	assert.NotSame(t, archive, store)
}

func TestPoolGetEmptyURIReturnsNil(t *testing.T) {
	p := sink.NewPool()

	s, err := p.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestPoolCloseClosesEverySinkOnce(t *testing.T) {
	p := sink.NewPool()

	s1, err := p.Get(context.Background(), "pooltest://bucket/a")
	require.NoError(t, err)

	s2, err := p.Get(context.Background(), "pooltest://bucket/b")
	require.NoError(t, err)

	require.NoError(t, p.Close())

	assert.Equal(t, int32(1), s1.(*fakeSink).closed.Load())
	assert.Equal(t, int32(1), s2.(*fakeSink).closed.Load())
}

func TestPoolGetReturnsErrorForUnregisteredScheme(t *testing.T) {
	p := sink.NewPool()

	_, err := p.Get(context.Background(), "nosuchscheme://host/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backend registered")
}
