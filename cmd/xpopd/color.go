package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/xpop/internal/color"
)

var colorCmd = &cobra.Command{
	Use:   "color SPEC...",
	Short: "Show how color strings resolve",
	Long: `Resolve color strings the way [gc] fg/bg values are resolved.

Accepted forms are 1, 3 or 6 hex digits, optionally after one leading
character such as '#'. Characters that are not hex digits count as 0.
Any other length is unsupported and falls back to black (for gc.fg and
gc.bg) or to the default style's color (for a named style).`,
	Args: cobra.MinimumNArgs(1),
	// Pure string parsing; skip the config load of the root command.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, spec := range args {
			printColor(cmd.OutOrStdout(), spec)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(colorCmd)
}

func printColor(w io.Writer, spec string) {
	v, ok := color.Resolve(spec)
	if !ok {
		fmt.Fprintf(w, "%-9s unsupported length %d, using black\n", spec, len(spec))
		return
	}
	swatch := lipgloss.NewStyle().Background(lipgloss.Color(v.Hex())).Render("    ")
	fmt.Fprintf(w, "%-9s %s  %s  %s\n", spec, v.Hex(), v.String(), swatch)
}
