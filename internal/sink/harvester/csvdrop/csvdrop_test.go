package csvdrop

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingestpipe/ingestpipe/internal/sink/harvester"
)

func fixedNow() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func TestIngestWritesHeaderAndRow(t *testing.T) {
	dir := t.TempDir()
	h := New("catalog", dir, true, fixedNow)

	err := h.Ingest(context.Background(), []harvester.Record{
		{LocalPath: "/tmp/a.nc", DestPath: "archive/a.nc", Checksum: "abc", Size: 42},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "catalog-2026-01-15.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "timestamp,op,local_path")
	assert.Contains(t, string(data), "/tmp/a.nc")
}

func TestIngestAppendsWithoutDuplicatingHeader(t *testing.T) {
	dir := t.TempDir()
	h := New("catalog", dir, true, fixedNow)

	require.NoError(t, h.Ingest(context.Background(), []harvester.Record{{LocalPath: "/a"}}))
	require.NoError(t, h.Ingest(context.Background(), []harvester.Record{{LocalPath: "/b"}}))

	data, err := os.ReadFile(filepath.Join(dir, "catalog-2026-01-15.csv"))
	require.NoError(t, err)

	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	assert.Equal(t, 3, lines) // header + two rows
}

func TestRemoveFailsWhenRemovalNotSupported(t *testing.T) {
	dir := t.TempDir()
	h := New("catalog", dir, false, fixedNow)

	err := h.Remove(context.Background(), []harvester.Record{{LocalPath: "/a", IsDeletion: true}})
	require.Error(t, err)
}
