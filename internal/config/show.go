package config

import (
	"fmt"
	"strings"
)

// Show renders a Config as a human-readable section-by-section summary,
// used by the `ingestpipe config show` CLI command. Secrets (mail password)
// are redacted.
func Show(cfg *Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "global:\n")
	fmt.Fprintf(&b, "  archive_uri = %q\n", cfg.Global.ArchiveURI)
	fmt.Fprintf(&b, "  upload_uri = %q\n", cfg.Global.UploadURI)
	fmt.Fprintf(&b, "  error_uri = %q\n", cfg.Global.ErrorURI)
	fmt.Fprintf(&b, "  scratch_root = %q\n", cfg.Global.ScratchRoot)
	fmt.Fprintf(&b, "  publish_concurrency = %d\n", cfg.Global.PublishConcurrency)
	fmt.Fprintf(&b, "  archive_fatal = %t\n", cfg.Global.ArchiveFatal)
	fmt.Fprintf(&b, "  max_file_size = %q\n", cfg.Global.MaxFileSize)

	fmt.Fprintf(&b, "logging:\n")
	fmt.Fprintf(&b, "  level = %q\n", cfg.Logging.Level)
	fmt.Fprintf(&b, "  format = %q\n", cfg.Logging.Format)

	fmt.Fprintf(&b, "mail:\n")
	fmt.Fprintf(&b, "  smtp_host = %q\n", cfg.Mail.SMTPHost)
	fmt.Fprintf(&b, "  smtp_port = %d\n", cfg.Mail.SMTPPort)
	fmt.Fprintf(&b, "  from = %q\n", cfg.Mail.From)

	if cfg.Mail.Password != "" {
		fmt.Fprintf(&b, "  password = %q\n", "[redacted]")
	}

	fmt.Fprintf(&b, "harvester:\n")
	fmt.Fprintf(&b, "  config_dir = %q\n", cfg.Harvester.ConfigDir)
	fmt.Fprintf(&b, "  schema_base = %q\n", cfg.Harvester.SchemaBase)

	fmt.Fprintf(&b, "templating:\n")
	fmt.Fprintf(&b, "  template_dir = %q\n", cfg.Templating.TemplateDir)

	fmt.Fprintf(&b, "watch:\n")
	fmt.Fprintf(&b, "  incoming_dir = %q\n", cfg.Watch.IncomingDir)
	fmt.Fprintf(&b, "  task_namespace = %q\n", cfg.Watch.TaskNamespace)

	fmt.Fprintf(&b, "pluggable:\n")
	fmt.Fprintf(&b, "  handlers = %v\n", cfg.Pluggable.Handlers)

	return b.String()
}
