package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/lushi/pkg/config"
	"github.com/japaniel/lushi/pkg/logging"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	verbose    bool
	dbPath     string

	cfg    *config.Config
	logger *zap.Logger
}

// newRootCmd wires the command tree around a. A logger preset on a is kept.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "lushi",
		Short: "Generate and score classical Chinese regulated verse",
		Long: `lushi builds random quatrains and octaves from a categorised lexicon
and ranks them by rhyme, tone pattern, antithesis and character diversity.

The lexicon lives in a SQLite database filled with "lushi import" from a
JSON document, or is read from the document directly at generation time.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "path to the SQLite database (overrides config)")

	root.AddCommand(
		newImportCmd(a),
		newExportCmd(a),
		newGenerateCmd(a),
		newScoreCmd(a),
		newTopCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg := config.DefaultConfig()
	if a.configPath != "" {
		loaded, err := config.LoadFromFile(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.dbPath != "" {
		cfg.Lexicon.Database = a.dbPath
	}
	if a.verbose {
		cfg.Logging.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	if a.logger == nil {
		logger, err := logging.New(cfg.Logging.Debug)
		if err != nil {
			return err
		}
		a.logger = logger
	}
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(&app{}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
