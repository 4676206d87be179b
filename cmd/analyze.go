package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaFlags      analyzeFlags
	anaOutputPath string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Analyze a CSV/TSV/XLSX file and produce a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		c := current()
		dsOpt, err := anaFlags.datasetOptions(cmd, c)
		if err != nil {
			return err
		}
		opt, err := anaFlags.analysisOptions(cmd, c)
		if err != nil {
			return err
		}
		format, err := anaFlags.outputFormat(cmd, c)
		if err != nil {
			return err
		}

		rep, err := analyzeFile(cmd.Context(), path, dsOpt, opt)
		if err != nil {
			return err
		}
		body, err := analysis.Render(rep, format)
		if err != nil {
			return err
		}
		for _, w := range rep.Warnings {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", w)
		}

		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, body); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote analysis to %s\n", anaOutputPath)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(body)
		return err
	},
}

// analyzeFile loads path and builds its report.
func analyzeFile(ctx context.Context, path string, dsOpt dataset.Options, opt analysis.Options) (*analysis.Report, error) {
	ds, err := dataset.Load(ctx, path, dsOpt)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	rep, err := analysis.Build(ctx, ds, opt)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", path, err)
	}
	return rep, nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.register(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
}
