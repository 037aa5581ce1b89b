package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/flightdash/internal/charts"
	"github.com/KaramelBytes/flightdash/internal/filter"
	"github.com/KaramelBytes/flightdash/internal/render"
	"github.com/KaramelBytes/flightdash/internal/table"
	"github.com/KaramelBytes/flightdash/internal/utils"
)

var (
	chMonths     []int
	chDays       []int
	chValues     []string
	chOutputPath string
	chPNGPath    string
)

func chartNames() []string {
	var names []string
	for _, s := range charts.All() {
		names = append(names, string(s.Name))
	}
	return names
}

var chartCmd = &cobra.Command{
	Use:       "chart <name>",
	Short:     "Compute one dashboard chart for a filter selection",
	Long:      "Compute one dashboard chart and print it as JSON, or draw it as PNG with --png.\nCharts: " + strings.Join(chartNames(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: chartNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := charts.Lookup(charts.Name(args[0]))
		if spec.Compute == nil {
			return fmt.Errorf("unknown chart %q (available: %s)", args[0], strings.Join(chartNames(), ", "))
		}
		if len(chValues) > 0 && spec.FilterColumn == "" {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s has no categorical filter; --values ignored\n", spec.Name)
		}
		t, err := table.ReadFile(cfg.DataPath, tableOptions())
		if err != nil {
			return err
		}
		view, err := filter.Apply(t, spec.Selection(chMonths, chDays, chValues))
		if err != nil {
			return err
		}
		res := spec.Compute(view)
		logger.Debug("chart computed", "chart", spec.Name, "rows", view.Nrow(), "of", t.Nrow())

		if chPNGPath != "" {
			if !res.OK() {
				return res.Err()
			}
			var buf bytes.Buffer
			if err := render.PNG(&buf, res, render.Options{Width: cfg.ChartWidth, Height: cfg.ChartHeight}); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(chPNGPath, buf.Bytes()); err != nil {
				return fmt.Errorf("write png: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s to %s\n", spec.Name, chPNGPath)
			return nil
		}

		if !res.OK() {
			fmt.Fprintf(os.Stderr, "⚠ %s\n", res.Notice)
		}
		b, err := utils.PrettyJSON(res)
		if err != nil {
			return err
		}
		if chOutputPath != "" {
			if err := utils.SafeWriteFile(chOutputPath, b); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s to %s\n", spec.Name, chOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "List the dashboard charts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, s := range charts.All() {
			fmt.Fprintf(out, "- %s: %s\n", s.Name, s.Question)
			fmt.Fprintf(out, "  requires: %s\n", strings.Join(s.Required, ", "))
			if s.FilterColumn != "" {
				fmt.Fprintf(out, "  filter: months, days, %s\n", s.FilterColumn)
			} else {
				fmt.Fprintf(out, "  filter: months, days\n")
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(chartsCmd)
	chartCmd.Flags().IntSliceVar(&chMonths, "months", nil, "months to keep, e.g. 1,2,3 (default: all)")
	chartCmd.Flags().IntSliceVar(&chDays, "days", nil, "days of month to keep (default: all)")
	chartCmd.Flags().StringSliceVar(&chValues, "values", nil, "carrier or origin codes to keep, depending on the chart (default: all)")
	chartCmd.Flags().StringVarP(&chOutputPath, "output", "o", "", "write JSON to this path instead of stdout")
	chartCmd.Flags().StringVar(&chPNGPath, "png", "", "draw the chart to this PNG path")
}
