package pipeline

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ingestpipe/ingestpipe/internal/config"
)

// resolve populates st.Files from st.InputPath per the dispatch rule in
// spec.md §4.3: archive -> expand into scratch and add each entry;
// manifest -> add each listed path in place, no copy; otherwise -> copy
// the single input into scratch and add.
func resolve(st *HandlerState, opts ResolveOptions) error {
	kind, err := classifyInput(st.InputPath)
	if err != nil {
		return NewError(KindInvalidInput, "resolve", fmt.Errorf("reading %s: %w", st.InputPath, err))
	}

	switch kind {
	case inputArchive:
		if err := resolveArchive(st); err != nil {
			return err
		}
	case inputManifest:
		if err := resolveManifest(st); err != nil {
			return err
		}
	default:
		if err := resolveSingleFile(st); err != nil {
			return err
		}
	}

	if err := applyFilter(st, opts); err != nil {
		return err
	}

	if err := populateMetadata(st); err != nil {
		return err
	}

	return enforceMaxFileSize(st)
}

func resolveSingleFile(st *HandlerState) error {
	dest := filepath.Join(st.ScratchDir, filepath.Base(st.InputPath))

	if err := copyFile(st.InputPath, dest); err != nil {
		return NewError(KindResolveFailure, "resolve.single_file", err)
	}

	return st.Files.Add(&PipelineFile{
		LocalPath:  dest,
		SourcePath: st.InputPath,
		FileType:   detectFileType(st.InputPath),
	})
}

func resolveManifest(st *HandlerState) error {
	f, err := os.Open(st.InputPath)
	if err != nil {
		return NewError(KindResolveFailure, "resolve.manifest", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if _, err := os.Stat(line); err != nil {
			return NewError(KindResolveFailure, "resolve.manifest",
				fmt.Errorf("manifest entry %q: %w", line, err))
		}

		if err := st.Files.Add(&PipelineFile{
			LocalPath:  line,
			SourcePath: line,
			FileType:   detectFileType(line),
		}); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return NewError(KindResolveFailure, "resolve.manifest", err)
	}

	return nil
}

func resolveArchive(st *HandlerState) error {
	lower := strings.ToLower(st.InputPath)

	switch {
	case strings.HasSuffix(lower, ".zip"):
		return resolveZip(st)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return resolveTarGz(st)
	case strings.HasSuffix(lower, ".tar"):
		return resolveTar(st)
	default:
		return NewError(KindInvalidInput, "resolve.archive",
			fmt.Errorf("unrecognised archive extension: %s", st.InputPath))
	}
}

func resolveZip(st *HandlerState) error {
	r, err := zip.OpenReader(st.InputPath)
	if err != nil {
		return NewError(KindResolveFailure, "resolve.zip", err)
	}
	defer r.Close()

	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}

		dest, err := safeEntryPath(st.ScratchDir, entry.Name)
		if err != nil {
			return NewError(KindResolveFailure, "resolve.zip", err)
		}

		rc, err := entry.Open()
		if err != nil {
			return NewError(KindResolveFailure, "resolve.zip", err)
		}

		err = writeEntry(dest, rc)
		rc.Close()

		if err != nil {
			return NewError(KindResolveFailure, "resolve.zip", err)
		}

		if err := st.Files.Add(&PipelineFile{
			LocalPath:  dest,
			SourcePath: entry.Name,
			FileType:   detectFileType(entry.Name),
		}); err != nil {
			return err
		}
	}

	return nil
}

func resolveTar(st *HandlerState) error {
	f, err := os.Open(st.InputPath)
	if err != nil {
		return NewError(KindResolveFailure, "resolve.tar", err)
	}
	defer f.Close()

	return extractTar(st, f)
}

func resolveTarGz(st *HandlerState) error {
	f, err := os.Open(st.InputPath)
	if err != nil {
		return NewError(KindResolveFailure, "resolve.tar_gz", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return NewError(KindResolveFailure, "resolve.tar_gz", err)
	}
	defer gz.Close()

	return extractTar(st, gz)
}

func extractTar(st *HandlerState, r io.Reader) error {
	tr := tar.NewReader(r)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}

		if err != nil {
			return NewError(KindResolveFailure, "resolve.tar", err)
		}

		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		dest, err := safeEntryPath(st.ScratchDir, hdr.Name)
		if err != nil {
			return NewError(KindResolveFailure, "resolve.tar", err)
		}

		if err := writeEntry(dest, tr); err != nil {
			return NewError(KindResolveFailure, "resolve.tar", err)
		}

		if err := st.Files.Add(&PipelineFile{
			LocalPath:  dest,
			SourcePath: hdr.Name,
			FileType:   detectFileType(hdr.Name),
		}); err != nil {
			return err
		}
	}
}

// safeEntryPath cleans an archive entry name and rejects absolute paths
// or any ".." segment after cleaning — the path-traversal guard spec.md
// §4.3 requires explicitly.
func safeEntryPath(scratchDir, name string) (string, error) {
	name = normalizePath(name)

	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, name)
	}

	cleaned := filepath.Clean(name)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, name)
	}

	return filepath.Join(scratchDir, cleaned), nil
}

func writeEntry(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, r)

	return err
}

func copyFile(src, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)

	return err
}

// applyFilter discards files matching either the regex or any pattern in
// the glob list (see fileExcluded); with both empty, every file stays.
func applyFilter(st *HandlerState, opts ResolveOptions) error {
	if opts.FilterRegex == "" && len(opts.FilterGlobs) == 0 {
		return nil
	}

	var re *regexp.Regexp

	if opts.FilterRegex != "" {
		var err error

		re, err = regexp.Compile(opts.FilterRegex)
		if err != nil {
			return NewError(KindInvalidInput, "resolve.filter", err)
		}
	}

	var toDiscard []string

	for _, f := range st.Files.All() {
		if fileExcluded(f.SourcePath, re, opts.FilterGlobs) {
			toDiscard = append(toDiscard, f.LocalPath)
		}
	}

	for _, path := range toDiscard {
		st.Files.Discard(path)
	}

	return nil
}

// fileExcluded reports whether sourcePath matches the exclude filter:
// either the regex or any of the glob patterns (spec.md §4.2's
// filter_regex "marks excluded files by removing them from the
// collection" — a match means exclude, not keep).
func fileExcluded(sourcePath string, re *regexp.Regexp, globs []string) bool {
	if re != nil && re.MatchString(sourcePath) {
		return true
	}

	for _, pattern := range globs {
		if ok, _ := doublestar.Match(pattern, sourcePath); ok {
			return true
		}
	}

	return false
}

// populateMetadata computes checksum, size, and mime type for every
// record, the post-resolve guarantee of spec.md §4.3.
func populateMetadata(st *HandlerState) error {
	for _, f := range st.Files.All() {
		info, err := os.Stat(f.LocalPath)
		if err != nil {
			return NewError(KindResolveFailure, "resolve.metadata", err)
		}

		f.Size = info.Size()

		sum, err := checksumFile(f.LocalPath)
		if err != nil {
			return NewError(KindResolveFailure, "resolve.metadata", err)
		}

		f.Checksum = sum

		mime, err := detectMimeType(f.LocalPath)
		if err != nil {
			return NewError(KindResolveFailure, "resolve.metadata", err)
		}

		f.MimeType = mime
	}

	return nil
}

// enforceMaxFileSize discards any file over global.max_file_size rather
// than failing the whole run, recording a warning so the result and the
// notifier still surface the exclusion.
func enforceMaxFileSize(st *HandlerState) error {
	limit := st.Config.Global.MaxFileSize
	if limit == "" {
		return nil
	}

	maxBytes, err := config.ParseSize(limit)
	if err != nil {
		return NewError(KindInvalidInput, "resolve.max_file_size", err)
	}

	if maxBytes == 0 {
		return nil
	}

	var toDiscard []string

	for _, f := range st.Files.All() {
		if f.Size > maxBytes {
			st.Warnings = append(st.Warnings,
				fmt.Sprintf("%s: %d bytes exceeds max_file_size (%s)", f.SourcePath, f.Size, limit))
			toDiscard = append(toDiscard, f.LocalPath)
		}
	}

	for _, path := range toDiscard {
		st.Files.Discard(path)
	}

	return nil
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
