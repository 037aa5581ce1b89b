package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/flightdash/internal/overview"
	"github.com/KaramelBytes/flightdash/internal/table"
	"github.com/KaramelBytes/flightdash/internal/utils"
)

var (
	ovOutputPath  string
	ovPreviewRows int
	ovJSON        bool
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Summarize the dataset: size, missing values and a preview",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := table.ReadFile(cfg.DataPath, tableOptions())
		if err != nil {
			return err
		}
		preview := cfg.PreviewRows
		if cmd.Flags().Changed("preview-rows") {
			preview = ovPreviewRows
		}
		rep := overview.Build(t, preview)

		var out []byte
		if ovJSON {
			out, err = utils.PrettyJSON(rep)
			if err != nil {
				return err
			}
		} else {
			out = []byte(rep.Markdown())
		}

		if ovOutputPath != "" {
			if err := utils.SafeWriteFile(ovOutputPath, out); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote overview to %s\n", ovOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(overviewCmd)
	overviewCmd.Flags().StringVarP(&ovOutputPath, "output", "o", "", "optional path to write the overview")
	overviewCmd.Flags().IntVar(&ovPreviewRows, "preview-rows", 0, "rows in the data preview (default from config)")
	overviewCmd.Flags().BoolVar(&ovJSON, "json", false, "print JSON instead of Markdown")
}
