package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingestpipe/ingestpipe/internal/config"
	"github.com/ingestpipe/ingestpipe/internal/notify"
)

func TestSendSkipsWhenNoRecipients(t *testing.T) {
	called := false

	n := &Notifier{
		cfg: config.MailConfig{From: "ingest@example.com"},
		sendMailFunc: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			called = true
			return nil
		},
	}

	require.NoError(t, n.Send(context.Background(), notify.Payload{HandlerName: "h"}))
	assert.False(t, called)
}

func TestSendBuildsMessageWithRenderedBody(t *testing.T) {
	var sentMsg []byte
	var sentTo []string

	n := &Notifier{
		cfg:        config.MailConfig{From: "ingest@example.com", SMTPHost: "smtp.example.com", SMTPPort: 25},
		recipients: []string{"ops@example.com", "oncall@example.com"},
		sendMailFunc: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			sentMsg = msg
			sentTo = to
			return nil
		},
	}

	payload := notify.Payload{
		HandlerName: "netcdf-ingest",
		Disposition: "success",
		Files:       []notify.FileSummary{{SourcePath: "a.nc", CheckPassed: true}},
	}

	require.NoError(t, n.Send(context.Background(), payload))

	assert.Equal(t, []string{"ops@example.com", "oncall@example.com"}, sentTo)
	assert.Contains(t, string(sentMsg), "netcdf-ingest")
	assert.Contains(t, string(sentMsg), "a.nc")
	assert.Contains(t, string(sentMsg), "Content-Type: text/html")
}

func TestSendReturnsErrorFromTransport(t *testing.T) {
	n := &Notifier{
		cfg:        config.MailConfig{From: "ingest@example.com"},
		recipients: []string{"ops@example.com"},
		sendMailFunc: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			return errors.New("connection refused")
		},
	}

	err := n.Send(context.Background(), notify.Payload{HandlerName: "h"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLoadTemplateFallsBackToDefaultWhenDirEmpty(t *testing.T) {
	n := &Notifier{templateDir: ""}

	tmpl, err := n.loadTemplate()
	require.NoError(t, err)
	assert.NotNil(t, tmpl)
}

func TestJoinRecipientsCommaSeparates(t *testing.T) {
	assert.Equal(t, "a@x.com, b@x.com", joinRecipients([]string{"a@x.com", "b@x.com"}))
	assert.Equal(t, "", joinRecipients(nil))
}
