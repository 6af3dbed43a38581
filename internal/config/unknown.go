package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when an unknown config section is detected.
const maxLevenshteinDistance = 3

// knownSections are the valid top-level table names.
var knownSections = map[string]bool{
	"global": true, "logging": true, "mail": true, "harvester": true,
	"templating": true, "watch": true, "pluggable": true,
}

var knownSectionsList = sortedKeys(knownSections)

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns an
// error with "did you mean?" suggestions for the offending top-level section.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var msgs []string

	for _, key := range undecoded {
		parts := key.String()
		top, _, _ := strings.Cut(parts, ".")

		if knownSections[top] {
			// A known section with an unknown field inside it.
			msgs = append(msgs, fmt.Sprintf("unknown config key %q", parts))

			continue
		}

		msg := fmt.Sprintf("unknown config section %q", top)
		if suggestion := closestMatch(top, knownSectionsList); suggestion != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", suggestion)
		}

		msgs = append(msgs, msg)
	}

	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}

// closestMatch returns the candidate within maxLevenshteinDistance of s, or
// "" if none qualifies. Ties are broken by the candidates' sort order.
func closestMatch(s string, candidates []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, c := range candidates {
		d := levenshtein(s, c)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}

	if bestDist > maxLevenshteinDistance {
		return ""
	}

	return best
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n, m := len(ra), len(rb)

	prev := make([]int, m+1)
	curr := make([]int, m+1)

	for j := 0; j <= m; j++ {
		prev[j] = j
	}

	for i := 1; i <= n; i++ {
		curr[0] = i

		for j := 1; j <= m; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[m]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}

	if c < m {
		m = c
	}

	return m
}
