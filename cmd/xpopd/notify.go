package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/xpop/internal/dbus"
	"github.com/jmylchreest/xpop/internal/model"
)

var notifyOpts struct {
	appName  string
	urgency  string
	style    string
	timeout  time.Duration
	replaces uint32
}

var notifyCmd = &cobra.Command{
	Use:   "notify SUMMARY [BODY]",
	Short: "Send a notification to the running daemon",
	Long: `Send a notification over the session bus, like notify-send.

--style picks a [gc] style by name and overrides the urgency mapping.
Without --timeout the daemon uses its per-urgency default; --timeout 0
keeps the popup until it is clicked.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	notifyCmd.Flags().StringVarP(&notifyOpts.appName, "app-name", "a", "xpopd",
		"Application name shown in the popup")
	notifyCmd.Flags().StringVarP(&notifyOpts.urgency, "urgency", "u", "normal",
		"Urgency level (low, normal, critical)")
	notifyCmd.Flags().StringVarP(&notifyOpts.style, "style", "s", "",
		"Style name from the [gc] section")
	notifyCmd.Flags().DurationVarP(&notifyOpts.timeout, "timeout", "t", -1,
		"Popup lifetime (0 = until clicked)")
	notifyCmd.Flags().Uint32VarP(&notifyOpts.replaces, "replace", "r", 0,
		"ID of a notification to replace")
}

func parseUrgency(s string) (int, error) {
	for level, name := range model.UrgencyNames {
		if strings.EqualFold(s, name) {
			return level, nil
		}
	}
	return 0, fmt.Errorf("invalid urgency %q, must be one of: low, normal, critical", s)
}

func runNotify(cmd *cobra.Command, args []string) error {
	urgency, err := parseUrgency(notifyOpts.urgency)
	if err != nil {
		return err
	}

	n := &dbus.DBusNotification{
		AppName:    notifyOpts.appName,
		ReplacesID: notifyOpts.replaces,
		Summary:    args[0],
		Hints: map[string]godbus.Variant{
			"urgency": dbus.UrgencyHint(urgency),
		},
		ExpireTimeout: -1,
	}
	if len(args) > 1 {
		n.Body = args[1]
	}
	if notifyOpts.style != "" {
		n.Hints[dbus.StyleHint] = dbus.StringHint(notifyOpts.style)
	}
	if notifyOpts.timeout >= 0 {
		n.ExpireTimeout = int32(notifyOpts.timeout / time.Millisecond)
	}

	client, err := dbus.NewClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id, err := client.Send(ctx, n)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}
