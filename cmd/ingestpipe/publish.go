package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ingestpipe/ingestpipe/internal/config"
	"github.com/ingestpipe/ingestpipe/internal/notify"
	notifylog "github.com/ingestpipe/ingestpipe/internal/notify/log"
	notifymail "github.com/ingestpipe/ingestpipe/internal/notify/mail"
	"github.com/ingestpipe/ingestpipe/internal/pipeline"
	isink "github.com/ingestpipe/ingestpipe/internal/sink"
	"github.com/ingestpipe/ingestpipe/internal/sink/harvester"
	"github.com/ingestpipe/ingestpipe/internal/sink/harvester/csvdrop"
)

// buildPublisher fetches the configured archive/store sinks from pool and
// pairs them with the default catalog harvester. The sinks themselves are
// long-lived: pool opens each URI once at most and every call to
// buildPublisher across the process's lifetime (one per run/watch
// invocation) gets back the same client, per SPEC_FULL.md §5's sink
// pooling requirement. A deployment that leaves a URI unset simply does
// not publish through that sink; handlers that never flag a
// PublishArchive/PublishUpload action never touch it either.
func buildPublisher(ctx context.Context, cfg *config.Config, pool *isink.Pool) (*pipeline.Publisher, error) {
	archive, err := pool.Get(ctx, cfg.Global.ArchiveURI)
	if err != nil {
		return nil, fmt.Errorf("opening archive sink: %w", err)
	}

	store, err := pool.Get(ctx, cfg.Global.UploadURI)
	if err != nil {
		return nil, fmt.Errorf("opening store sink: %w", err)
	}

	errSink, err := pool.Get(ctx, cfg.Global.ErrorURI)
	if err != nil {
		return nil, fmt.Errorf("opening error sink: %w", err)
	}

	h := csvdrop.New("default", cfg.Harvester.ConfigDir, true, time.Now)

	pub := &pipeline.Publisher{
		Archive:      archive,
		Store:        store,
		ErrorSink:    errSink,
		Harvesters:   map[string]harvester.Harvester{"default": h},
		Concurrency:  cfg.Global.PublishConcurrency,
		ArchiveFatal: cfg.Global.ArchiveFatal,
	}

	return pub, nil
}

// buildNotifier returns the mail notifier when mail.smtp_host is set,
// falling back to the zero-config log notifier otherwise.
func buildNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Mail.SMTPHost == "" {
		return notifylog.New(nil)
	}

	return notifymail.New(cfg.Mail, cfg.Templating.TemplateDir, nil)
}
