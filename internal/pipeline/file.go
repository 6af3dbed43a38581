// Package pipeline implements the handler execution engine: the state
// machine that orders the eight ingestion phases, the file collection that
// threads state between them, and the publisher that reconciles per-file
// archive/harvest/store actions against external sinks.
package pipeline

// PublishAction is one bit of a PipelineFile's PublishType action set.
// Actions are orthogonal flags, not an enum: a file can be flagged for
// archive and harvest-addition and upload all at once.
type PublishAction uint8

const (
	PublishNone PublishAction = 0

	// PublishArchive copies the file's local content into the archive sink.
	PublishArchive PublishAction = 1 << (iota - 1)

	// PublishHarvestAdd ingests a catalog record for the file.
	PublishHarvestAdd

	// PublishHarvestDelete removes a previously-ingested catalog record.
	PublishHarvestDelete

	// PublishUpload transfers the file to the store sink at DestPath.
	PublishUpload

	// PublishDelete removes DestPath (or DeleteTarget, for late deletion)
	// from the store sink.
	PublishDelete
)

// Has reports whether the action set contains all bits of want.
func (p PublishAction) Has(want PublishAction) bool {
	return p&want == want
}

// String renders the set as a pipe-separated list of flag names, e.g.
// "archive|upload". Returns "none" for the empty set.
func (p PublishAction) String() string {
	if p == PublishNone {
		return "none"
	}

	names := []struct {
		bit  PublishAction
		name string
	}{
		{PublishArchive, "archive"},
		{PublishHarvestAdd, "harvest-add"},
		{PublishHarvestDelete, "harvest-delete"},
		{PublishUpload, "upload"},
		{PublishDelete, "delete"},
	}

	out := ""

	for _, n := range names {
		if p.Has(n.bit) {
			if out != "" {
				out += "|"
			}

			out += n.name
		}
	}

	return out
}

// CheckState is the tri-state outcome of file validation.
type CheckState uint8

const (
	CheckNotChecked CheckState = iota
	CheckPassed
	CheckFailed
)

// FileType is the declared type of a pipeline file, driving check dispatch.
type FileType string

const (
	FileTypeUnknown FileType = ""
	FileTypeNetCDF  FileType = "netcdf"
	FileTypePDF     FileType = "pdf"
	FileTypeCSV     FileType = "csv"
	FileTypeJSON    FileType = "json"
)

// CheckKind selects the validation strategy applied to a file, per the
// checker's three-tier dispatch (spec.md §4.4).
type CheckKind string

const (
	CheckKindCompliance CheckKind = "compliance"
	CheckKindStructural CheckKind = "structural"
	CheckKindNonEmpty   CheckKind = "nonempty"
)

// PipelineFile is the central record tracked across every phase. Fields
// are grouped to mirror the attribute table in spec.md §3.
type PipelineFile struct {
	// Identity and origin.
	LocalPath  string
	SourcePath string
	FileType   FileType

	// Validation.
	CheckType       CheckKind
	CheckPassed     CheckState
	CheckDiagnostic string

	// Publish intent and destinations.
	PublishType  PublishAction
	DestPath     string
	ArchivePath  string
	DeleteTarget string // prior artifact path for late-deletion replace
	LateDeletion bool
	IsDeletion   bool

	// Completion flags — monotonic false -> true, never back.
	IsStored    bool
	IsArchived  bool
	IsHarvested bool

	// Derived metadata, populated by the resolver.
	Checksum string
	MimeType string
	Size     int64

	// HarvestGroup is the harvester name this file was assigned to by the
	// publisher's grouping step (internal/pipeline/publisher.go). Empty
	// until the harvest phase runs.
	HarvestGroup string

	// HarvestRollback records whether a compensating deletion was
	// submitted after a store failure (spec.md §4.5 atomicity rule).
	HarvestRollback bool

	// PublishDiagnostic carries the last publish-stage failure for this
	// file, surfaced in the notification summary. Empty on success.
	PublishDiagnostic string
}

// CanPublish reports whether the file is eligible for any publish action.
// A file that failed its check can never publish (spec.md §3 invariant),
// and a file with no local materialisation cannot either.
func (f *PipelineFile) CanPublish() bool {
	return f.CheckPassed != CheckFailed && f.LocalPath != ""
}

// MarkStored sets IsStored. Completion flags are monotonic: calling this a
// second time is a no-op, never a reset to false.
func (f *PipelineFile) MarkStored() { f.IsStored = true }

// MarkArchived sets IsArchived.
func (f *PipelineFile) MarkArchived() { f.IsArchived = true }

// MarkHarvested sets IsHarvested.
func (f *PipelineFile) MarkHarvested() { f.IsHarvested = true }

// FailedOrIncomplete reports whether f failed its check or was flagged
// for a publish action it never completed — the set copied to
// global.error_uri on a failed run, for operator inspection (spec.md §6).
func (f *PipelineFile) FailedOrIncomplete() bool {
	if f.CheckPassed == CheckFailed {
		return true
	}

	if f.PublishType.Has(PublishArchive) && !f.IsArchived {
		return true
	}

	if f.PublishType.Has(PublishUpload) && !f.IsStored {
		return true
	}

	if f.PublishType.Has(PublishHarvestAdd) && !f.IsHarvested {
		return true
	}

	return false
}
