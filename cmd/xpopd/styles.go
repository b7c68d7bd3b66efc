package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/xpop/internal/color"
	"github.com/jmylchreest/xpop/internal/gcontext"
	"github.com/jmylchreest/xpop/internal/xserver"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Show the styles the daemon would use",
	Long: `Allocate every style from the [gc] section on the X server and print
the result, newest registration first. Lookups by name pick the first row
with that name, so a duplicate lower in the list is never used.

The SAME column lists the attributes a style shares with the default style,
either because they were not set or because they failed to resolve.`,
	Args: cobra.NoArgs,
	RunE: runStyles,
}

func init() {
	rootCmd.AddCommand(stylesCmd)
}

func runStyles(cmd *cobra.Command, args []string) error {
	conn, err := xserver.Dial(globalOpts.display, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	registry := gcontext.New(conn, cfg.Keys(), logger)
	defer registry.Teardown()

	if err := registry.LoadAll(); err != nil {
		if !errors.Is(err, gcontext.ErrNotConfigured) {
			return err
		}
		if _, err := registry.InitializeDefaults(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "no gc.list configured, only the default style exists")
	}

	baseline, _ := registry.Baseline()
	printStyles(cmd.OutOrStdout(), registry.Styles(), baseline)
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func printStyles(w io.Writer, styles []gcontext.Handle, baseline gcontext.Spec) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-12s %-10s %-10s %-5s %-16s %-15s %s", "NAME", "FG", "BG", "WIDTH", "FONT", "SAME", "SAMPLE")))
	for _, h := range styles {
		fmt.Fprintf(w, "%-12s %s %s %-5d %-16s %s %s\n",
			h.Name,
			colorCell(h.Spec.ForegroundColor, h.Spec.Foreground),
			colorCell(h.Spec.BackgroundColor, h.Spec.Background),
			h.Spec.LineWidth,
			h.Spec.FontName,
			dimStyle.Render(fmt.Sprintf("%-15s", shared(h, baseline))),
			sample(h.Spec),
		)
	}
}

// shared lists the attributes of h that match the baseline.
func shared(h gcontext.Handle, baseline gcontext.Spec) string {
	if h.Name == gcontext.DefaultStyleName && h.Spec == baseline {
		return "-"
	}

	var same []string
	if h.Spec.Foreground == baseline.Foreground {
		same = append(same, "fg")
	}
	if h.Spec.Background == baseline.Background {
		same = append(same, "bg")
	}
	if h.Spec.LineWidth == baseline.LineWidth {
		same = append(same, "width")
	}
	if h.Spec.FontName == baseline.FontName {
		same = append(same, "font")
	}
	if len(same) == 0 {
		return "none"
	}
	return strings.Join(same, ",")
}

// colorCell renders a fixed-width color column. Pixels that did not come
// from a color string are printed raw.
func colorCell(v *color.Value, pixel uint32) string {
	if v == nil {
		return dimStyle.Render(fmt.Sprintf("%-10s", fmt.Sprintf("px:%06x", pixel)))
	}
	return fmt.Sprintf("%-10s", v.Hex())
}

func sample(spec gcontext.Spec) string {
	style := lipgloss.NewStyle().Padding(0, 1)
	if spec.ForegroundColor != nil {
		style = style.Foreground(lipgloss.Color(spec.ForegroundColor.Hex()))
	}
	if spec.BackgroundColor != nil {
		style = style.Background(lipgloss.Color(spec.BackgroundColor.Hex()))
	}
	return style.Render(spec.Name)
}
