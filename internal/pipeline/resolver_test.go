package pipeline

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingestpipe/ingestpipe/internal/config"
)

func newScratchState(t *testing.T, inputPath string) *HandlerState {
	t.Helper()

	st := NewHandlerState("test-handler", inputPath, &config.Config{}, nil)
	st.ID = uuid.New()
	st.ScratchDir = t.TempDir()

	return st
}

func TestResolveSingleFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "good.csv")
	require.NoError(t, os.WriteFile(input, []byte("a,b\n1,2\n"), 0o644))

	st := newScratchState(t, input)

	require.NoError(t, resolve(st, ResolveOptions{}))

	assert.Equal(t, 1, st.Files.Count())

	f := st.Files.All()[0]
	assert.Equal(t, FileTypeCSV, f.FileType)
	assert.NotEmpty(t, f.Checksum)
	assert.Equal(t, int64(8), f.Size)
}

func TestResolveZipExpandsEntries(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pair.zip")

	zf, err := os.Create(archivePath)
	require.NoError(t, err)

	zw := zip.NewWriter(zf)

	for _, name := range []string{"a.csv", "b.csv"} {
		w, err := zw.Create(name)
		require.NoError(t, err)

		_, err = w.Write([]byte("x,y\n1,2\n"))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	require.NoError(t, zf.Close())

	st := newScratchState(t, archivePath)

	require.NoError(t, resolve(st, ResolveOptions{}))
	assert.Equal(t, 2, st.Files.Count())
}

func TestResolveZipRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")

	zf, err := os.Create(archivePath)
	require.NoError(t, err)

	zw := zip.NewWriter(zf)
	w, err := zw.Create("../../etc/passwd")
	require.NoError(t, err)
	_, err = w.Write([]byte("pwned"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, zf.Close())

	st := newScratchState(t, archivePath)

	err = resolve(st, ResolveOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPathTraversal)
}

func TestResolveManifestAddsListedPathsInPlace(t *testing.T) {
	dir := t.TempDir()

	entryA := filepath.Join(dir, "a.csv")
	entryB := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(entryA, []byte("1,2\n"), 0o644))
	require.NoError(t, os.WriteFile(entryB, []byte("3,4\n"), 0o644))

	manifest := filepath.Join(dir, "list.manifest")
	require.NoError(t, os.WriteFile(manifest,
		[]byte("# comment\n"+entryA+"\n\n"+entryB+"\n"), 0o644))

	st := newScratchState(t, manifest)

	require.NoError(t, resolve(st, ResolveOptions{}))
	assert.Equal(t, 2, st.Files.Count())
	assert.Equal(t, entryA, st.Files.All()[0].LocalPath)
}

func TestResolveManifestMissingEntryIsResolveFailure(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "list.manifest")
	require.NoError(t, os.WriteFile(manifest, []byte(filepath.Join(dir, "missing.csv")+"\n"), 0o644))

	st := newScratchState(t, manifest)

	err := resolve(st, ResolveOptions{})
	require.Error(t, err)
	assert.Equal(t, KindResolveFailure, KindOf(err))
}

func TestResolveManifestWithFilterRegexExcludesMatchingEntry(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.csv")
	skip := filepath.Join(dir, "skip.csv")
	require.NoError(t, os.WriteFile(keep, []byte("1\n"), 0o644))
	require.NoError(t, os.WriteFile(skip, []byte("2\n"), 0o644))

	manifest := filepath.Join(dir, "list.manifest")
	require.NoError(t, os.WriteFile(manifest, []byte(keep+"\n"+skip+"\n"), 0o644))

	st := newScratchState(t, manifest)

	require.NoError(t, resolve(st, ResolveOptions{FilterRegex: `skip\.csv$`}))

	assert.Equal(t, 1, st.Files.Count())
	assert.Equal(t, keep, st.Files.All()[0].LocalPath)
}

func TestResolveEmptyZipYieldsEmptyCollection(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "empty.zip")

	zf, err := os.Create(archivePath)
	require.NoError(t, err)

	zw := zip.NewWriter(zf)
	require.NoError(t, zw.Close())
	require.NoError(t, zf.Close())

	st := newScratchState(t, archivePath)

	require.NoError(t, resolve(st, ResolveOptions{}))
	assert.Equal(t, 0, st.Files.Count())
}

func TestResolveExcludesFilesOverMaxFileSize(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "big.csv")
	require.NoError(t, os.WriteFile(input, []byte("0123456789"), 0o644))

	st := newScratchState(t, input)
	st.Config.Global.MaxFileSize = "5B"

	require.NoError(t, resolve(st, ResolveOptions{}))

	assert.Equal(t, 0, st.Files.Count())
	require.Len(t, st.Warnings, 1)
	assert.Contains(t, st.Warnings[0], "max_file_size")
}
