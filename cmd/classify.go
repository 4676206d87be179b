package cmd

import (
	"fmt"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/KaramelBytes/dataloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	clsFlags  analyzeFlags
	clsFormat string
)

type classifiedColumn struct {
	Name    string             `json:"name"`
	Type    dataset.ColumnType `json:"type"`
	NonNull int                `json:"nonNull"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Print the inferred column types of a CSV/TSV/XLSX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dsOpt, err := clsFlags.datasetOptions(cmd, current())
		if err != nil {
			return err
		}
		format, err := analysis.ParseFormat(clsFormat)
		if err != nil {
			return err
		}
		ds, err := dataset.Load(cmd.Context(), args[0], dsOpt)
		if err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}

		cols := make([]classifiedColumn, 0, len(ds.Headers))
		for _, h := range ds.Headers {
			nonNull := 0
			for _, v := range ds.Column(h) {
				if !v.IsMissing() {
					nonNull++
				}
			}
			cols = append(cols, classifiedColumn{Name: h, Type: dataset.Classify(ds, h), NonNull: nonNull})
		}

		out := cmd.OutOrStdout()
		if format == analysis.FormatJSON {
			b, err := utils.PrettyJSON(cols)
			if err != nil {
				return err
			}
			_, err = out.Write(b)
			return err
		}
		fmt.Fprintf(out, "✓ Loaded %s (%d rows, %d columns)\n", ds.Name, ds.Len(), len(ds.Headers))
		for _, c := range cols {
			fmt.Fprintf(out, "- %s: %s (non-null %d)\n", c.Name, c.Type, c.NonNull)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	clsFlags.registerIngest(classifyCmd)
	classifyCmd.Flags().StringVarP(&clsFormat, "format", "f", "markdown", "output format: markdown|json")
}
