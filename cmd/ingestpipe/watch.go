package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ingestpipe/ingestpipe/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var handlerName string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the configured incoming directory and run a handler on each new file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			if cc.Cfg.Watch.IncomingDir == "" {
				return fmt.Errorf("watch.incoming_dir is not configured")
			}

			w := watch.New(cc.Cfg.Watch.IncomingDir, cc.Logger)

			return w.Run(cmd.Context(), func(ctx context.Context, path string) error {
				return runOnce(ctx, cc, handlerName, path)
			})
		},
	}

	cmd.Flags().StringVar(&handlerName, "handler", "", "registered handler name (required)")
	cmd.MarkFlagRequired("handler")

	return cmd
}
