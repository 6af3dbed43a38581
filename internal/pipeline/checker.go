package pipeline

import (
	"fmt"
	"os"
	"strings"
)

// scientificFileTypes are the declared types eligible for compliance-suite
// dispatch; spec.md §4.4 calls these "recognised scientific formats".
// Concrete validators are out of scope, hence the small set here.
var scientificFileTypes = map[FileType]bool{
	FileTypeNetCDF: true,
}

// check assigns CheckPassed for every file in the collection using the
// three-tier dispatch of spec.md §4.4: compliance suite, then structural,
// then minimal nonempty.
func check(st *HandlerState, opts CheckOptions) error {
	for _, f := range st.Files.All() {
		ok, diag := runCheck(f, opts)

		if ok {
			f.CheckPassed = CheckPassed
			f.CheckDiagnostic = ""

			continue
		}

		f.CheckPassed = CheckFailed
		f.CheckDiagnostic = diag
	}

	return nil
}

func runCheck(f *PipelineFile, opts CheckOptions) (bool, string) {
	if len(opts.ComplianceSuites) > 0 && scientificFileTypes[f.FileType] {
		f.CheckType = CheckKindCompliance

		return runComplianceSuites(f, opts.ComplianceSuites)
	}

	if f.FileType != FileTypeUnknown {
		f.CheckType = CheckKindStructural

		return structuralCheck(f)
	}

	f.CheckType = CheckKindNonEmpty

	return checkNonEmpty(f)
}

func runComplianceSuites(f *PipelineFile, names []string) (bool, string) {
	var diagnostics []string

	for _, name := range names {
		suite, ok := complianceSuites[name]
		if !ok {
			diagnostics = append(diagnostics, fmt.Sprintf("unknown compliance suite %q", name))

			continue
		}

		if ok, diag := suite.Check(f); !ok {
			diagnostics = append(diagnostics, fmt.Sprintf("%s: %s", suite.Name(), diag))
		}
	}

	if len(diagnostics) > 0 {
		return false, strings.Join(diagnostics, "; ")
	}

	return true, ""
}

func checkNonEmpty(f *PipelineFile) (bool, string) {
	info, err := os.Stat(f.LocalPath)
	if err != nil {
		return false, fmt.Sprintf("stat: %v", err)
	}

	if info.Size() == 0 {
		return false, "file is empty"
	}

	return true, ""
}

// anyCheckFailed reports whether any file in the collection has a failed
// check, used by the runtime to decide whether to short-circuit before
// process/publish (spec.md §4.4's default fail-fast policy).
func anyCheckFailed(files *FileCollection) bool {
	return len(files.View(func(f *PipelineFile) bool {
		return f.CheckPassed == CheckFailed
	})) > 0
}
