package pipeline

import (
	"archive/zip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
)

// structuralCheck runs a format-only validation for a recognised
// FileType: the file parses as its declared format, without judging
// domain-specific content (spec.md §4.4 tier 2).
func structuralCheck(f *PipelineFile) (bool, string) {
	switch f.FileType {
	case FileTypeCSV:
		return checkCSV(f.LocalPath)
	case FileTypeJSON:
		return checkJSON(f.LocalPath)
	case FileTypePDF:
		return checkPDFHeader(f.LocalPath)
	case FileTypeNetCDF:
		return checkZipLikeOrMagic(f.LocalPath)
	default:
		return true, ""
	}
}

func checkCSV(path string) (bool, string) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Sprintf("opening file: %v", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if _, err := r.Read(); err != nil {
		return false, fmt.Sprintf("invalid CSV header: %v", err)
	}

	return true, ""
}

func checkJSON(path string) (bool, string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Sprintf("opening file: %v", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return false, fmt.Sprintf("invalid JSON: %v", err)
	}

	return true, ""
}

func checkPDFHeader(path string) (bool, string) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Sprintf("opening file: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 5)
	if _, err := f.Read(buf); err != nil {
		return false, fmt.Sprintf("reading header: %v", err)
	}

	if string(buf) != "%PDF-" {
		return false, "missing %PDF- header"
	}

	return true, ""
}

// checkZipLikeOrMagic handles the classic-NetCDF "CDF" magic case; the
// HDF5-backed NetCDF4 variant is a zip-like container in practice, but a
// real parse is exactly the compliance-suite territory this package
// leaves to deployments.
func checkZipLikeOrMagic(path string) (bool, string) {
	ok, diag := (MagicBytesSuite{}).Check(&PipelineFile{FileType: FileTypeNetCDF, LocalPath: path})
	if ok {
		return true, ""
	}

	if _, err := zip.OpenReader(path); err == nil {
		return true, ""
	}

	return false, diag
}
