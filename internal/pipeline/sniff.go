package pipeline

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// inputKind classifies a submission so the resolver knows whether to
// expand an archive, dereference a manifest, or copy a single file.
type inputKind int

const (
	inputSingleFile inputKind = iota
	inputArchive
	inputManifest
)

var archiveExtensions = map[string]bool{
	".zip":    true,
	".tar":    true,
	".tar.gz": true,
	".tgz":    true,
}

var manifestExtensions = map[string]bool{
	".manifest": true,
	".txt":      true,
}

// classifyInput identifies input kind by extension first, then content
// sniff for ambiguous or extension-less submissions (spec.md §4.3).
func classifyInput(path string) (inputKind, error) {
	lower := strings.ToLower(path)

	for ext := range archiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return inputArchive, nil
		}
	}

	ext := filepath.Ext(lower)
	if manifestExtensions[ext] {
		return inputManifest, nil
	}

	return sniffContent(path)
}

// sniffContent falls back to magic-byte detection for inputs whose
// extension gave no answer.
func sniffContent(path string) (inputKind, error) {
	f, err := os.Open(path)
	if err != nil {
		return inputSingleFile, err
	}
	defer f.Close()

	buf := make([]byte, 512)

	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return inputSingleFile, nil
	}

	ct := http.DetectContentType(buf[:n])

	switch {
	case strings.Contains(ct, "zip"):
		return inputArchive, nil
	case strings.Contains(ct, "x-gzip"):
		return inputArchive, nil
	default:
		return inputSingleFile, nil
	}
}

// detectFileType maps an extension to the declared FileType driving
// check dispatch. Unrecognised extensions map to FileTypeUnknown.
func detectFileType(path string) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nc", ".nc4", ".cdf":
		return FileTypeNetCDF
	case ".pdf":
		return FileTypePDF
	case ".csv":
		return FileTypeCSV
	case ".json":
		return FileTypeJSON
	default:
		return FileTypeUnknown
	}
}

// detectMimeType sniffs the content type from the first 512 bytes of the
// file at path, per spec.md §4.3's post-resolve metadata guarantee.
func detectMimeType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, 512)

	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return "application/octet-stream", nil
	}

	return http.DetectContentType(buf[:n]), nil
}
