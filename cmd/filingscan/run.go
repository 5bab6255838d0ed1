package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"filingscan/internal/config"
	"filingscan/internal/gather"
	"filingscan/internal/util"
)

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run [DATE] [OUTPUT]",
	Short: "Scan one date, a list of dates, or the most recent index",
	Long: `Scan the EDGAR daily index for DATE (YYYY-MM-DD, YYYYMMDD or MM/DD/YYYY)
and append matches to OUTPUT. Without a date, the most recent available
index is used, walking back from yesterday. DATE may be "latest" to select
that behaviour while still naming OUTPUT.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags(cmd, cfg)

		dates, err := runDates(cmd, args)
		if err != nil {
			return err
		}
		if len(args) > 1 {
			cfg.Output.Path = args[1]
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config:\n%w", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		p, closeFn, err := buildPipeline(ctx, cfg, dates, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		logger.Info("starting filingscan run",
			"output", cfg.Output.Path,
			"schema", cfg.Output.Schema,
			"preset", cfg.Filter.Preset,
			"dates", len(dates),
			"resume", cfg.Pipeline.Resume,
		)
		return p.Run(ctx)
	},
}

func init() {
	addPipelineFlags(runCmd)
	runCmd.Flags().String("dates-file", "", "file listing dates to process (CSV with a date column, or one per line)")
	runCmd.Flags().Bool("resume", false, "skip dates already recorded in the .completed sidecar")
}

// addPipelineFlags registers the flags shared by run and watch.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().Int("workers", 0, "concurrent filings per date (default from config)")
	cmd.Flags().String("schema", "", "output schema: full or basic")
	cmd.Flags().String("preset", "", "form/keyword preset (see 'filingscan presets')")
	cmd.Flags().StringP("output", "o", "", "output path (.csv, .parquet, .db)")
}

// applyRunFlags copies explicitly set flags over the loaded config.
func applyRunFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		c.Pipeline.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("schema") {
		c.Output.Schema, _ = flags.GetString("schema")
	}
	if flags.Changed("preset") {
		c.Filter.Preset, _ = flags.GetString("preset")
	}
	if flags.Changed("output") {
		c.Output.Path, _ = flags.GetString("output")
	}
	if flags.Lookup("resume") != nil && flags.Changed("resume") {
		c.Pipeline.Resume, _ = flags.GetBool("resume")
	}
}

// runDates collects the explicit DATE argument and the --dates-file
// entries. An empty result selects most-recent mode.
func runDates(cmd *cobra.Command, args []string) ([]time.Time, error) {
	var dates []time.Time
	if len(args) > 0 && !isLatest(args[0]) {
		d, err := util.ParseDate(args[0])
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}

	if path, _ := cmd.Flags().GetString("dates-file"); path != "" {
		fileDates, err := gather.ReadDatesFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("dates file %s not found", path)
			}
			return nil, fmt.Errorf("reading dates file: %w", err)
		}
		dates = append(dates, fileDates...)
	}
	return dates, nil
}

func isLatest(arg string) bool {
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "", "latest", "-":
		return true
	}
	return false
}
