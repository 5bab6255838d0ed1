// filingscan discovers SEC EDGAR filings that mention financing events and
// enriches them with summaries and price features.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"filingscan/internal/config"
	"filingscan/internal/util"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

const defaultConfigPath = "config/filingscan.yaml"

// Global state, populated by the root command's PersistentPreRunE.
var (
	cfg     *config.Config
	logger  *slog.Logger
	logFile *os.File
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "filingscan",
	Short: "Scan SEC EDGAR daily filings for financing events",
	Long: `filingscan reads the EDGAR daily master index, keeps the form types of
interest, scans each filing for financing keywords, and appends the matches
(with a short summary and price features) to a result table.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = defaultConfigPath
			if p := os.Getenv("FILINGSCAN_CONFIG"); p != "" {
				path = p
			}
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			cfg.Logging.Level = lvl
		}

		logger, logFile, err = openLogger(cfg.Logging, os.Stdout, time.Now())
		if err != nil {
			return err
		}
		util.SetDefault(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: $FILINGSCAN_CONFIG or "+defaultConfigPath+")")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(presetsCmd)
}

// openLogger builds the application logger. When a log file is configured
// records go to both stdout and the file; a "{date}" placeholder in the file
// name is replaced with today's date.
func openLogger(lc config.Logging, stdout io.Writer, now time.Time) (*slog.Logger, *os.File, error) {
	if lc.File == "" {
		return util.NewLogger(stdout, lc.Level, lc.Format), nil, nil
	}

	name := strings.ReplaceAll(lc.File, "{date}", now.Format("2006-01-02"))
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log dir: %w", err)
		}
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	// Dual logger: stdout + log file.
	w := io.MultiWriter(stdout, f)
	return util.NewLogger(w, lc.Level, lc.Format), f, nil
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "filingscan %s (%s)\n", version, commit)
	},
}
