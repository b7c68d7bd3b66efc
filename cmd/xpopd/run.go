package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/xpop/internal/daemon"
	"github.com/jmylchreest/xpop/internal/dbus"
	"github.com/jmylchreest/xpop/internal/xserver"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the notification daemon (default)",
	Long: `Connect to the X server, claim org.freedesktop.Notifications on the
session bus and show incoming notifications as popups.

The config file is watched; saving it reloads styles and geometry without
restarting. A config that fails to load leaves the running setup untouched.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	logger.Info("starting xpopd", "version", version)

	conn, err := xserver.Dial(globalOpts.display, logger)
	if err != nil {
		return err
	}

	server := dbus.NewNotificationServer(logger)
	info := dbus.DefaultServerInfo()
	info.Version = version
	server.SetServerInfo(info)

	d, err := daemon.New(conn, server, cfg, logger)
	if err != nil {
		conn.Close()
		return err
	}

	if err := server.Start(); err != nil {
		d.Close()
		return fmt.Errorf("failed to start notification server: %w", err)
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Warn("error stopping notification server", "error", err)
		}
	}()

	watcher, err := daemon.NewConfigWatcher(globalOpts.configPath, logger)
	if err != nil {
		logger.Warn("config hot reload disabled", "error", err)
	} else {
		watcher.SetReloadCallback(d.Reload)
		watcher.SetErrorCallback(d.ReloadFailed)
		if err := watcher.Start(cfg); err != nil {
			logger.Warn("config hot reload disabled", "error", err)
		}
		defer watcher.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d.Notifier().NotifyStartup(version)
	return d.Run(ctx)
}
