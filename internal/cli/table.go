// Package cli renders pipeline results and execution history for the
// ingestpipe command-line tool: table output (grounded on
// marmos91-dittofs's internal/cli/output/table.go) and TTY-aware color
// selection for the disposition column.
package cli

import (
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/ingestpipe/ingestpipe/internal/audit"
	"github.com/ingestpipe/ingestpipe/internal/pipeline"
)

const historyTimeFormat = "2006-01-02 15:04:05"

func newTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	return table
}

// PrintResult renders one handler execution's outcome: a summary line
// plus one table row per file.
func PrintResult(w io.Writer, result pipeline.Result, colorize bool) {
	io.WriteString(w, dispositionLabel(result.Disposition, colorize)+
		": "+result.HandlerName+" ("+result.InputPath+")\n")

	if len(result.Warnings) > 0 {
		for _, warn := range result.Warnings {
			io.WriteString(w, "  warning: "+warn+"\n")
		}
	}

	if len(result.Files) == 0 {
		return
	}

	table := newTable(w, []string{"Source", "Check", "Publish", "Stored", "Archived", "Harvested"})

	for _, f := range result.Files {
		table.Append([]string{
			f.SourcePath,
			boolLabel(f.CheckPassed, colorize),
			f.PublishType.String(),
			yesNo(f.IsStored),
			yesNo(f.IsArchived),
			yesNo(f.IsHarvested),
		})
	}

	table.Render()
}

// PrintHistory renders the execution ledger as a table, newest first.
func PrintHistory(w io.Writer, entries []audit.Entry) {
	table := newTable(w, []string{"ID", "Handler", "Input", "Disposition", "Files", "Finished", "Duration"})

	for _, e := range entries {
		table.Append([]string{
			e.ID,
			e.HandlerName,
			e.InputPath,
			e.Disposition,
			strconv.Itoa(e.FileCount),
			e.FinishedAt.Format(historyTimeFormat),
			e.Duration.Round(time.Millisecond).String(),
		})
	}

	table.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}

