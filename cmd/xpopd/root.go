package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/xpop/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var (
	cfg        *config.DaemonConfig
	globalOpts struct {
		verbose    bool
		configPath string
		display    string
	}
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "xpopd",
	Short: "Notification popups for plain X11 sessions",
	Long: `xpopd is a freedesktop.org notification daemon that draws each
notification as a small borderless X11 window.

Popups stack from the configured screen corner, newest first, and take their
colors, line width and font from the named styles in the [gc] section of
~/.config/xpop/xpopd.toml.

Running xpopd without a subcommand starts the daemon.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadDaemonConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "xpopd:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/xpop/xpopd.toml)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.display, "display", "",
		"X display to connect to (default: $DISPLAY)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}
