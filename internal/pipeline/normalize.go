package pipeline

import "golang.org/x/text/unicode/norm"

// normalizePath applies Unicode NFC normalization to a path component so
// archive entries and manifest lines produced on different platforms
// (HFS+ decomposes accented characters, most archivers compose them)
// compare and collide consistently.
func normalizePath(p string) string {
	return norm.NFC.String(p)
}
