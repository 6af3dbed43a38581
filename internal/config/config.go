// Package config implements TOML configuration loading and validation for
// ingestpipe: the global, logging, mail, harvester, templating, watch, and
// pluggable sections a deployment supplies at the handler-runtime boundary.
package config

// Config is the top-level configuration document. Every section here is a
// structural boundary named in the specification; none of them carry
// domain logic, only the values a sink, harvester, or CLI needs to dial out.
type Config struct {
	Global     GlobalConfig     `toml:"global"`
	Logging    LoggingConfig    `toml:"logging"`
	Mail       MailConfig       `toml:"mail"`
	Harvester  HarvesterConfig  `toml:"harvester"`
	Templating TemplatingConfig `toml:"templating"`
	Watch      WatchConfig      `toml:"watch"`
	Pluggable  PluggableConfig  `toml:"pluggable"`
}

// GlobalConfig holds the sink URIs and scratch/concurrency settings shared
// by every handler execution.
type GlobalConfig struct {
	ArchiveURI         string `toml:"archive_uri"`
	UploadURI          string `toml:"upload_uri"`
	ErrorURI           string `toml:"error_uri"`
	ScratchRoot        string `toml:"scratch_root"`
	WFSEndpoint        string `toml:"wfs_endpoint"`
	PublishConcurrency int    `toml:"publish_concurrency"`
	ArchiveFatal       bool   `toml:"archive_fatal"`

	// MaxFileSize, if set, is a human-readable size (e.g. "500MiB") above
	// which the resolver excludes a file from the collection rather than
	// publishing it. Empty means no limit.
	MaxFileSize string `toml:"max_file_size"`
}

// LoggingConfig controls the runtime's slog output.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text|json
}

// MailConfig holds the SMTP settings used by the mail notifier.
type MailConfig struct {
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	From     string `toml:"from"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// HarvesterConfig locates harvester declarations and their schemas.
type HarvesterConfig struct {
	ConfigDir  string `toml:"config_dir"`
	SchemaBase string `toml:"schema_base"`
}

// TemplatingConfig locates notification templates.
type TemplatingConfig struct {
	TemplateDir string `toml:"template_dir"`
}

// WatchConfig describes the external watch boundary: where submissions are
// deposited and the task namespace used to tag them.
type WatchConfig struct {
	IncomingDir   string `toml:"incoming_dir"`
	TaskNamespace string `toml:"task_namespace"`
}

// PluggableConfig names the handlers registered for this deployment. The
// runtime looks these up in its explicit registry (see
// internal/pipeline.Registry) rather than via reflection-based discovery.
type PluggableConfig struct {
	Handlers []string `toml:"handlers"`
}
