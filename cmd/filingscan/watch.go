package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"filingscan/internal/gather"
)

// --- Watch Command ---

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Scan the most recent index on a cron schedule until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRunFlags(cmd, cfg)
		if s, _ := cmd.Flags().GetString("schedule"); s != "" {
			cfg.Schedule.Cron = s
		}
		// Watch always resumes so a date is scanned once per output.
		cfg.Pipeline.Resume = true
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config:\n%w", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		p, closeFn, err := buildPipeline(ctx, cfg, nil, logger)
		if err != nil {
			return err
		}
		defer closeFn()

		return gather.Watch(ctx, cfg.Schedule.Cron, p, logger)
	},
}

func init() {
	addPipelineFlags(watchCmd)
	watchCmd.Flags().String("schedule", "", `cron expression, e.g. "30 6 * * 1-5" or "@every 6h" (default from config)`)
}
