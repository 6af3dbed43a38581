package cli

import (
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ingestpipe/ingestpipe/internal/pipeline"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

// ColorEnabled reports whether f is a terminal that understands ANSI
// color codes, used to decide whether PrintResult colorizes its output.
func ColorEnabled(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func dispositionLabel(d pipeline.Disposition, colorize bool) string {
	if !colorize {
		return string(d)
	}

	switch d {
	case pipeline.DispositionSuccess:
		return ansiGreen + string(d) + ansiReset
	case pipeline.DispositionCheckFailed, pipeline.DispositionCancelled:
		return ansiYellow + string(d) + ansiReset
	case pipeline.DispositionFailed:
		return ansiRed + string(d) + ansiReset
	default:
		return string(d)
	}
}

func boolLabel(state pipeline.CheckState, colorize bool) string {
	label := "not checked"

	switch state {
	case pipeline.CheckPassed:
		label = "passed"
	case pipeline.CheckFailed:
		label = "failed"
	}

	if !colorize {
		return label
	}

	if state == pipeline.CheckPassed {
		return ansiGreen + label + ansiReset
	}

	if state == pipeline.CheckFailed {
		return ansiRed + label + ansiReset
	}

	return label
}
