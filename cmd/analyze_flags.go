package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/KaramelBytes/dataloom-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/dataloom-cli/internal/config"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
	"github.com/spf13/cobra"
)

// analyzeFlags are shared by analyze, analyze-batch and classify. Unset flags
// fall back to the loaded configuration.
type analyzeFlags struct {
	format     string
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sampleRows int
	sheetName  string
	sheetIndex int
	asOf       string
	types      []string
	trustTypes bool
	noBusiness bool
	workers    int
}

func (f *analyzeFlags) registerIngest(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (by extension if omitted)")
	fs.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	fs.StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	fs.IntVar(&f.maxRows, "max-rows", 0, "maximum rows to process (0 = unlimited)")
	fs.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fs.IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func (f *analyzeFlags) register(cmd *cobra.Command) {
	f.registerIngest(cmd)
	fs := cmd.Flags()
	fs.StringVarP(&f.format, "format", "f", "", "output format: markdown|json|yaml")
	fs.IntVar(&f.sampleRows, "sample-rows", 5, "number of sample rows to include in Markdown")
	fs.StringVar(&f.asOf, "as-of", "", "reference date for RFM recency (YYYY-MM-DD or RFC3339; default now)")
	fs.StringArrayVar(&f.types, "type", nil, "declare a column type: column=numeric|categorical (repeatable)")
	fs.BoolVar(&f.trustTypes, "trust-types", false, "use --type declarations without re-validating them")
	fs.BoolVar(&f.noBusiness, "no-business", false, "skip business metrics and RFM segmentation")
	fs.IntVar(&f.workers, "workers", 0, "concurrent column workers (0 = config or GOMAXPROCS)")
}

// datasetOptions merges config with any ingestion flags that were set.
func (f *analyzeFlags) datasetOptions(cmd *cobra.Command, c *cfgpkg.Global) (dataset.Options, error) {
	opt, err := c.DatasetOptions()
	if err != nil {
		return opt, err
	}
	fs := cmd.Flags()
	if fs.Changed("delimiter") {
		if opt.Delimiter, err = cfgpkg.Separator(f.delimiter); err != nil {
			return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
		}
	}
	if fs.Changed("decimal") {
		if opt.Parse.DecimalSeparator, err = cfgpkg.Separator(f.decimal); err != nil {
			return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
		}
	}
	if fs.Changed("thousands") {
		if opt.Parse.ThousandsSeparator, err = cfgpkg.Separator(f.thousands); err != nil {
			return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
		}
	}
	if fs.Changed("max-rows") {
		opt.MaxRows = f.maxRows
	}
	opt.SheetName = f.sheetName
	opt.SheetIndex = f.sheetIndex
	return opt, nil
}

// analysisOptions merges config with analysis flags.
func (f *analyzeFlags) analysisOptions(cmd *cobra.Command, c *cfgpkg.Global) (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	opt.Fields = c.Fields()
	opt.SampleRows = c.SampleRows
	opt.Workers = c.Workers
	opt.Logger = slog.Default()
	fs := cmd.Flags()
	if fs.Changed("sample-rows") {
		opt.SampleRows = f.sampleRows
	}
	if fs.Changed("workers") {
		opt.Workers = f.workers
	}
	opt.Business = !f.noBusiness
	opt.TrustTypes = f.trustTypes
	types, err := dataset.ParseTypeOverrides(f.types)
	if err != nil {
		return opt, err
	}
	opt.Types = types
	if f.asOf != "" {
		t, err := parseAsOf(f.asOf)
		if err != nil {
			return opt, err
		}
		opt.AsOf = t
	}
	return opt, nil
}

// outputFormat resolves --format, falling back to output_format.
func (f *analyzeFlags) outputFormat(cmd *cobra.Command, c *cfgpkg.Global) (string, error) {
	if cmd.Flags().Changed("format") {
		return analysis.ParseFormat(f.format)
	}
	return analysis.ParseFormat(c.OutputFormat)
}

func parseAsOf(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid --as-of %q (use YYYY-MM-DD or RFC3339)", s)
}
