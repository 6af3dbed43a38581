package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"0", 0},
		{"100", 100},
		{"1KB", kilobyte},
		{"1KiB", kibibyte},
		{"2MB", 2 * megabyte},
		{"1.5GiB", int64(1.5 * float64(gibibyte))},
		{"1TB", terabyte},
	}

	for _, tc := range cases {
		got, err := ParseSize(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseSizeRejectsNegative(t *testing.T) {
	_, err := ParseSize("-5")
	require.Error(t, err)
}

func TestParseSizeRejectsGarbage(t *testing.T) {
	_, err := ParseSize("not-a-size")
	require.Error(t, err)
}
