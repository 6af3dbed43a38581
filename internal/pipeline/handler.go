package pipeline

import "context"

// ResolveOptions carries handler-supplied parameters to the resolver: an
// optional include/exclude filter applied after population (spec.md
// §4.2's filter_regex policy, supplemented with a glob list).
type ResolveOptions struct {
	// FilterRegex, if non-empty, is compiled and OR'd with FilterGlobs:
	// a file matching either is excluded from the collection.
	FilterRegex string

	// FilterGlobs is a list of doublestar patterns, matched against
	// SourcePath, supplementing FilterRegex with the glob idiom most
	// ingestion manifests are actually filtered by.
	FilterGlobs []string
}

// CheckOptions carries handler-supplied parameters to the checker: which
// compliance suites apply, and whether a failed check should exclude the
// file rather than fail the whole run.
type CheckOptions struct {
	// ComplianceSuites lists suite names to run when FileType matches a
	// recognised scientific format. Empty means fall through to
	// structural/nonempty dispatch for every file.
	ComplianceSuites []string

	// ContinueOnFailure, when true, excludes failed files from publish
	// instead of failing the whole handler (spec.md §4.4).
	ContinueOnFailure bool
}

// Handler is the capability-pattern extension point a deployment
// registers: domain hooks plus a path function plus check parameters,
// plugged into the fixed runtime scaffold.
type Handler interface {
	Name() string

	Preprocess(ctx context.Context, st *HandlerState) error
	Process(ctx context.Context, st *HandlerState) error
	Postprocess(ctx context.Context, st *HandlerState) error

	// DestPath derives the store-root-relative destination for f. Called
	// at the end of preprocess, before check, so checkers and the
	// publisher can both rely on it being set.
	DestPath(f *PipelineFile) string

	ResolveOptions() ResolveOptions
	CheckOptions() CheckOptions

	// Recipients names who notify should deliver this handler's
	// notification to (spec.md §4.1: "notification recipients" is a
	// handler-supplied parameter, not global configuration). Nil means
	// let the configured notifier fall back to its own default.
	Recipients() []string
}

// NoopHooks supplies no-op Preprocess/Process/Postprocess implementations
// so a concrete handler only needs to override what it cares about,
// rather than implement the full interface by hand.
type NoopHooks struct{}

func (NoopHooks) Preprocess(context.Context, *HandlerState) error  { return nil }
func (NoopHooks) Process(context.Context, *HandlerState) error     { return nil }
func (NoopHooks) Postprocess(context.Context, *HandlerState) error { return nil }
func (NoopHooks) Recipients() []string                             { return nil }
