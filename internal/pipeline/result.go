package pipeline

// FileSummary is one row of the terminal notification payload: a
// condensed view of a PipelineFile's outcome, not the full record.
type FileSummary struct {
	LocalPath         string
	SourcePath        string
	CheckPassed       CheckState
	Diagnostic        string
	PublishType       PublishAction
	IsStored          bool
	IsArchived        bool
	IsHarvested       bool
	PublishDiagnostic string
}

// Result is the terminal outcome of one Runtime.Execute call: the
// disposition plus a per-file summary, exactly the shape the notifier
// and the audit ledger both consume.
type Result struct {
	HandlerName string
	InputPath   string
	Disposition Disposition
	Err         error
	Files       []FileSummary
	Warnings    []string
}

// summarize builds the FileSummary slice for a Result from the current
// contents of a file collection, in insertion order.
func summarize(files *FileCollection) []FileSummary {
	all := files.All()
	out := make([]FileSummary, 0, len(all))

	for _, f := range all {
		out = append(out, FileSummary{
			LocalPath:         f.LocalPath,
			SourcePath:        f.SourcePath,
			CheckPassed:       f.CheckPassed,
			Diagnostic:        f.CheckDiagnostic,
			PublishType:       f.PublishType,
			IsStored:          f.IsStored,
			IsArchived:        f.IsArchived,
			IsHarvested:       f.IsHarvested,
			PublishDiagnostic: f.PublishDiagnostic,
		})
	}

	return out
}
