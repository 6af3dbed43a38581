// Package harvester defines the external harvester boundary from spec.md
// §6: a two-step ingest/remove interface invoked once per group of files
// assigned to the same harvester.
package harvester

import "context"

// Record is the minimal shape a harvester needs to describe one catalog
// entry. The publisher builds these from PipelineFile records so this
// package has no dependency on internal/pipeline (the boundary runs the
// other direction: pipeline depends on harvester, not vice versa).
type Record struct {
	LocalPath  string
	SourcePath string
	DestPath   string
	Checksum   string
	MimeType   string
	Size       int64
	IsDeletion bool
}

// Harvester ingests or removes catalog records describing stored
// artifacts. Invocations are serialized across groups by the publisher
// (spec.md §4.5 tie-break rule: harvesters are not assumed concurrency-safe).
type Harvester interface {
	Name() string
	// SupportsRemoval reports whether Remove is meaningful for this
	// harvester. A harvester that cannot remove entries makes rollback on
	// store failure impossible; the publisher fails loudly instead of
	// silently leaving a stale catalog entry (spec.md §9 Open Question 1).
	SupportsRemoval() bool
	Ingest(ctx context.Context, group []Record) error
	Remove(ctx context.Context, group []Record) error
}
