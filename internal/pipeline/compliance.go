package pipeline

import (
	"fmt"
	"os"
)

// ComplianceSuite validates a file against a named scientific-format
// ruleset. Concrete validators (NetCDF CF-conventions, PDF/A, etc.) are
// out of scope (spec.md §1); this package ships dispatch plumbing plus
// two illustrative suites sufficient for tests and the example handlers.
type ComplianceSuite interface {
	Name() string
	Check(f *PipelineFile) (bool, string)
}

var complianceSuites = map[string]ComplianceSuite{}

// RegisterComplianceSuite adds suite to the named lookup used by the
// checker's compliance tier. Call during package init or handler setup.
func RegisterComplianceSuite(suite ComplianceSuite) {
	complianceSuites[suite.Name()] = suite
}

func init() {
	RegisterComplianceSuite(NonEmptySuite{})
	RegisterComplianceSuite(MagicBytesSuite{})
}

// NonEmptySuite is an illustrative suite: a file passes if it has
// nonzero size. Standing in for a real compliance checker in tests.
type NonEmptySuite struct{}

func (NonEmptySuite) Name() string { return "nonempty" }

func (NonEmptySuite) Check(f *PipelineFile) (bool, string) {
	if f.Size <= 0 {
		return false, "file is empty"
	}

	return true, ""
}

// magicBytes maps a declared FileType to its expected leading bytes.
var magicBytes = map[FileType][]byte{
	FileTypeNetCDF: []byte("CDF"),
	FileTypePDF:    []byte("%PDF"),
}

// MagicBytesSuite is an illustrative suite checking a declared file
// type's magic number, standing in for the NetCDF/PDF validators spec.md
// excludes from scope.
type MagicBytesSuite struct{}

func (MagicBytesSuite) Name() string { return "magic_bytes" }

func (MagicBytesSuite) Check(f *PipelineFile) (bool, string) {
	want, ok := magicBytes[f.FileType]
	if !ok {
		return true, ""
	}

	data, err := os.ReadFile(f.LocalPath)
	if err != nil {
		return false, fmt.Sprintf("reading file: %v", err)
	}

	if len(data) < len(want) || string(data[:len(want)]) != string(want) {
		return false, fmt.Sprintf("missing %s magic bytes", f.FileType)
	}

	return true, ""
}
