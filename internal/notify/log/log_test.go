package log

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingestpipe/ingestpipe/internal/notify"
)

func TestSendLogsSummaryAndPerFileLines(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	n := New(logger)

	payload := notify.Payload{
		HandlerName: "netcdf-ingest",
		Disposition: "success",
		Files: []notify.FileSummary{
			{SourcePath: "a.nc", CheckPassed: true, IsStored: true},
		},
		Warnings: []string{"minor issue"},
	}

	require.NoError(t, n.Send(context.Background(), payload))

	out := buf.String()
	assert.Contains(t, out, "handler notification")
	assert.Contains(t, out, "netcdf-ingest")
	assert.Contains(t, out, "file outcome")
	assert.Contains(t, out, "a.nc")
}

func TestNewFallsBackToDefaultLoggerOnNil(t *testing.T) {
	n := New(nil)
	assert.NotNil(t, n.Logger)
}
