package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fluxpost/internal/config"
	"fluxpost/internal/pipeline"
	"fluxpost/internal/report"
	"fluxpost/internal/watch"
)

var version = "1.2.0"

var (
	// Global flags
	verbose    bool
	configPath string

	// Processing flags (override config file values)
	resultsPath    string
	detectorsPath  string
	detectorName   string
	sourceStrength float64
	outputDir      string
	archiveDB      string
	noCSV          bool
	noPlots        bool

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fluxpost",
	Short: "fluxpost - neutron transport result post-processor",
	Long: `fluxpost post-processes result files written by an external Monte Carlo
neutron-transport solver.

It loads the scalar/vector summary table and a per-detector tally table,
resolves a flux normalization factor from the source rate fields, converts
raw tally scores into flux spectra, estimates dose rates against the
ANSI/ANS-6.1.1-1977 flux-to-dose table, and emits text reports, CSV exports,
PNG plots and an optional SQLite run archive.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// processCmd runs the pipeline once
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the post-processing pipeline once",
	Long: `Runs the full batch pipeline:
  1. Load the summary result table and the detector tally table
  2. Resolve the flux normalization factor (TOT_SRCRATE, SRC_MULT, or
     the configured source strength, in that order)
  3. Convert raw tally scores to flux and flux per unit energy
  4. Estimate dose rates via log-log pchip interpolation of the
     ANS-6.1.1-1977 conversion table
  5. Emit report, CSV, plot and archive artifacts

Example:
  fluxpost process --results run_res.m --detectors run_det0.m --detector DET1 \
    --source-strength 1e17 --out results/`,
	RunE: runProcess,
}

// watchCmd re-runs the pipeline on input changes
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the solver output files and reprocess on change",
	Long: `Watches the configured result files and re-runs the processing pipeline
whenever the solver rewrites them. Events are debounced (default 500ms).
Press Ctrl+C to stop.`,
	RunE: runWatch,
}

// runsCmd queries the run archive
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Query the SQLite run archive",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one archived run with its per-bin rows",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the fluxpost version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fluxpost %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "fluxpost.yaml", "Configuration file")

	for _, cmd := range []*cobra.Command{processCmd, watchCmd} {
		cmd.Flags().StringVar(&resultsPath, "results", "", "Summary result table file (e.g. run_res.m)")
		cmd.Flags().StringVar(&detectorsPath, "detectors", "", "Detector tally table file (e.g. run_det0.m)")
		cmd.Flags().StringVar(&detectorName, "detector", "", "Detector name to process (default DET1)")
		cmd.Flags().Float64Var(&sourceStrength, "source-strength", 0, "Absolute source strength in neutrons/second")
		cmd.Flags().StringVar(&outputDir, "out", "", "Output directory for artifacts")
		cmd.Flags().StringVar(&archiveDB, "archive-db", "", "Archive runs into this SQLite database")
		cmd.Flags().BoolVar(&noCSV, "no-csv", false, "Skip CSV exports")
		cmd.Flags().BoolVar(&noPlots, "no-plots", false, "Skip PNG plots")
	}
	runsCmd.PersistentFlags().StringVar(&archiveDB, "archive-db", "", "SQLite archive database path")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig merges the config file with the command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if resultsPath != "" {
		cfg.Inputs.Results = resultsPath
	}
	if detectorsPath != "" {
		cfg.Inputs.Detectors = detectorsPath
	}
	if detectorName != "" {
		cfg.Inputs.Detector = detectorName
	}
	if sourceStrength > 0 {
		cfg.Normalization.SourceStrength = sourceStrength
	}
	if outputDir != "" {
		cfg.Outputs.Dir = outputDir
	}
	if archiveDB != "" {
		cfg.Archive.Enabled = true
		cfg.Archive.Path = archiveDB
	}
	if noCSV {
		cfg.Outputs.CSV = false
	}
	if noPlots {
		cfg.Outputs.Plots = false
	}
	return cfg, nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	res, err := pipeline.Run(cfg, logger)
	if err != nil {
		return err
	}
	if err := pipeline.Emit(cmd.Context(), cfg, res, logger); err != nil {
		return err
	}

	if cfg.Outputs.Styled {
		fmt.Println(report.Styled(res.Spectrum, res.Dose))
	} else if err := report.Text(os.Stdout, res.Spectrum, res.Dose); err != nil {
		return err
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	process := func(path string) {
		res, err := pipeline.Run(cfg, logger)
		if err != nil {
			logger.Error("reprocess failed", zap.Error(err))
			return
		}
		if err := pipeline.Emit(ctx, cfg, res, logger); err != nil {
			logger.Error("emit failed", zap.Error(err))
		}
	}

	// Process once up front so the artifacts exist before the first change.
	process("")

	w, err := watch.New(
		[]string{cfg.Inputs.Results, cfg.Inputs.Detectors},
		cfg.DebounceDuration(),
		process,
		logger,
	)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	logger.Info("watching for solver output changes",
		zap.String("results", cfg.Inputs.Results),
		zap.String("detectors", cfg.Inputs.Detectors))

	<-ctx.Done()
	return nil
}
