// Command ingestpipe runs registered ingestion handlers against a
// submission, either once (`run`) or continuously as new files appear in
// a watched directory (`watch`), and reports execution history
// (`history`) and effective configuration (`config show`). Grounded on
// the teacher's root.go PersistentPreRunE/CLIContext pattern.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ingestpipe/ingestpipe/internal/audit"
	"github.com/ingestpipe/ingestpipe/internal/config"
	"github.com/ingestpipe/ingestpipe/internal/handlers/netcdfingest"
	"github.com/ingestpipe/ingestpipe/internal/handlers/quarantine"
	"github.com/ingestpipe/ingestpipe/internal/pipeline"
	isink "github.com/ingestpipe/ingestpipe/internal/sink"

	_ "github.com/ingestpipe/ingestpipe/internal/sink/localfs"
	_ "github.com/ingestpipe/ingestpipe/internal/sink/s3"
	_ "github.com/ingestpipe/ingestpipe/internal/sink/webdav"
)

var version = "dev"

// Global persistent flags, bound in newRootCmd.
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagDebug      bool
	flagQuiet      bool
)

// CLIContext bundles the resolved config, logger, handler registry, and
// audit ledger built once in PersistentPreRunE, so subcommands never
// re-derive them.
type CLIContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Registry *pipeline.Registry
	Audit    *audit.Ledger
	SinkPool *isink.Pool
}

type cliContextKey struct{}

func cliContextFrom(ctx context.Context) *CLIContext {
	cc, _ := ctx.Value(cliContextKey{}).(*CLIContext)
	return cc
}

func mustCLIContext(ctx context.Context) *CLIContext {
	cc := cliContextFrom(ctx)
	if cc == nil {
		panic("BUG: CLIContext not found in context — PersistentPreRunE did not run")
	}

	return cc
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ingestpipe",
		Short:         "File ingestion pipeline runner",
		Long:          "Runs pluggable ingestion handlers over incoming scientific data submissions.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadCLIContext(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			cc := cliContextFrom(cmd.Context())
			if cc == nil {
				return nil
			}

			var errs []error

			if cc.SinkPool != nil {
				errs = append(errs, cc.SinkPool.Close())
			}

			if cc.Audit != nil {
				errs = append(errs, cc.Audit.Close())
			}

			return errors.Join(errs...)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show detailed output")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "debug", "quiet")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func loadCLIContext(cmd *cobra.Command) error {
	env := config.ReadEnvOverrides()
	if flagConfigPath != "" {
		env.ConfigPath = flagConfigPath
	}

	logger := buildLogger(nil)

	cfg, err := config.Resolve(env, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger = buildLogger(cfg)

	registry := pipeline.NewRegistry()
	registerHandlers(registry, cfg)

	cc := &CLIContext{Cfg: cfg, Logger: logger, Registry: registry, SinkPool: isink.NewPool()}

	dataDir := config.DefaultDataDir()
	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			logger.Warn("could not create data dir, audit history disabled", "dir", dataDir, "error", err)
		} else {
			ledger, err := audit.Open(cmd.Context(), dataDir+"/history.db", logger)
			if err != nil {
				logger.Warn("opening audit ledger failed, history disabled", "error", err)
			} else {
				cc.Audit = ledger
			}
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cc))

	return nil
}

// registerHandlers wires the two illustrative handlers named in
// config.Pluggable.Handlers into registry. A deployment that lists a
// handler name not known here simply never resolves it at run time.
func registerHandlers(registry *pipeline.Registry, cfg *config.Config) {
	destPrefix := "ingest"

	for _, name := range cfg.Pluggable.Handlers {
		switch name {
		case netcdfingest.Name:
			registry.Register(netcdfingest.Name, netcdfingest.Factory(destPrefix))
		case quarantine.Name:
			registry.Register(quarantine.Name, quarantine.Factory(destPrefix))
		}
	}
}

func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo

	if cfg != nil {
		switch cfg.Logging.Level {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	if flagVerbose {
		level = slog.LevelInfo
	}

	if flagDebug {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg != nil && cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
