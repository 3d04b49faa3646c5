package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/dssat-eval-service/internal/adapter/dssatfs"
	"github.com/couchcryptid/dssat-eval-service/internal/config"
	"github.com/couchcryptid/dssat-eval-service/internal/observability"
	"github.com/couchcryptid/dssat-eval-service/internal/pipeline"
	"github.com/spf13/cobra"
)

// app holds the collaborators shared by every subcommand. It is populated in
// the root command's PersistentPreRunE.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	catalog   *dssatfs.Catalog
	store     *dssatfs.Store
	codes     *dssatfs.CodeDictionary
	evaluator *pipeline.Evaluator
}

type rootFlags struct {
	dssatBase string
	logLevel  string
	logFormat string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "dssat-eval",
		Short: "Evaluate DSSAT simulation output against observed data",
		Long: `dssat-eval reads a DSSAT installation, parses simulation output and
observed data files, and reports RMSE, normalized RMSE and Willmott's index
of agreement per treatment and variable.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, flags)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&flags.dssatBase, "dssat-base", "", "DSSAT installation directory (overrides DSSAT_BASE)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newEvaluateCmd(a),
		newRunCmd(a),
		newCropsCmd(a),
		newExperimentsCmd(a),
		newTreatmentsCmd(a),
		newVariablesCmd(a),
		newValidateCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flags.dssatBase != "" {
		cfg.DSSATBase = flags.dssatBase
		if os.Getenv("DSSAT_DATA_CDE") == "" {
			cfg.DataCDE = filepath.Join(flags.dssatBase, "DATA.CDE")
		}
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	logger := observability.NewWriterLogger(cmd.ErrOrStderr(), cfg.LogLevel, flags.logFormat)
	metrics := observability.NewLocalMetrics()

	a.cfg = cfg
	a.logger = logger
	a.catalog = dssatfs.NewCatalog(cfg.DSSATBase, logger)
	a.store = dssatfs.NewStore(cfg.ParseOptions(), cfg.ParseCacheSize, logger, metrics)
	a.codes = dssatfs.NewCodeDictionary(cfg.DataCDE, logger, metrics)
	a.evaluator = pipeline.NewEvaluator(a.catalog, a.store, a.codes, logger, metrics)
	return nil
}
