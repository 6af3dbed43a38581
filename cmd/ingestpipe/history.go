package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ingestpipe/ingestpipe/internal/cli"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent execution history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if cc.Audit == nil {
				return fmt.Errorf("audit history is not available for this deployment")
			}

			entries, err := cc.Audit.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("reading history: %w", err)
			}

			cli.PrintHistory(os.Stdout, entries)

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of entries to show")

	return cmd
}
