package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ingestpipe/ingestpipe/internal/cli"
	"github.com/ingestpipe/ingestpipe/internal/pipeline"
)

var flagHandlerName string

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <input-path>",
		Short: "Run a registered handler once against a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := mustCLIContext(cmd.Context())
			return runOnce(cmd.Context(), cc, flagHandlerName, args[0])
		},
	}

	cmd.Flags().StringVar(&flagHandlerName, "handler", "", "registered handler name (required)")
	cmd.MarkFlagRequired("handler")

	return cmd
}

// runOnce builds one Runtime for handlerName against inputPath, executes
// it to completion, and renders the result. The error Execute returns is
// not passed through (the Result already carries it, and it has been
// recorded and notified); instead any non-success disposition makes
// runOnce return an error naming the handler and disposition.
func runOnce(ctx context.Context, cc *CLIContext, handlerName, inputPath string) error {
	handler, err := cc.Registry.New(handlerName)
	if err != nil {
		return fmt.Errorf("resolving handler: %w", err)
	}

	st := pipeline.NewHandlerState(handlerName, inputPath, cc.Cfg, nil)

	publisher, err := buildPublisher(ctx, cc.Cfg, cc.SinkPool)
	if err != nil {
		return fmt.Errorf("building publisher: %w", err)
	}

	rt := &pipeline.Runtime{
		Handler:   handler,
		State:     st,
		Logger:    cc.Logger,
		Audit:     cc.Audit,
		Notifier:  buildNotifier(cc.Cfg),
		Publisher: publisher,
	}

	result, _ := rt.Execute(ctx)

	cli.PrintResult(os.Stdout, result, cli.ColorEnabled(os.Stdout))

	if result.Disposition != pipeline.DispositionSuccess {
		return fmt.Errorf("handler %s: %s", handlerName, result.Disposition)
	}

	return nil
}
