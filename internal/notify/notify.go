// Package notify defines the notifier boundary from spec.md §4.6: runs
// regardless of success or failure, delivering the terminal disposition
// and per-file summary via a configured transport. Failure to notify is
// logged by the caller and never changes the disposition it reports.
package notify

import "context"

// FileSummary is the notifier's view of one pipeline file's outcome.
type FileSummary struct {
	SourcePath  string
	CheckPassed bool
	Diagnostic  string
	PublishType string
	IsStored    bool
	IsArchived  bool
	IsHarvested bool
}

// Payload is the terminal disposition plus per-file summary handed to a
// Notifier, exactly the notification content spec.md §6 describes as
// "observable state at the boundary".
type Payload struct {
	HandlerName string
	Disposition string
	Files       []FileSummary
	Warnings    []string

	// Recipients, when set, overrides a transport's own configured
	// default recipients for this one delivery (spec.md §4.1: recipients
	// are a per-handler parameter).
	Recipients []string
}

// Notifier delivers a Payload via whatever transport a deployment
// configures. Concrete transports (internal/notify/mail,
// internal/notify/log) are boundary collaborators, not core logic.
type Notifier interface {
	Send(ctx context.Context, payload Payload) error
}
