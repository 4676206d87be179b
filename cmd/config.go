package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/dataloom-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set DataLoom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := current()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "output_format: %s\n", c.OutputFormat)
		fmt.Fprintf(out, "delimiter: %s\n", orAuto(c.Delimiter))
		fmt.Fprintf(out, "decimal_separator: %s\n", orAuto(c.DecimalSeparator))
		fmt.Fprintf(out, "thousands_separator: %s\n", orAuto(c.ThousandsSeparator))
		fmt.Fprintf(out, "max_rows: %d\n", c.MaxRows)
		fmt.Fprintf(out, "sample_rows: %d\n", c.SampleRows)
		fmt.Fprintf(out, "workers: %d\n", c.Workers)
		fmt.Fprintf(out, "revenue_column: %s\n", c.RevenueColumn)
		fmt.Fprintf(out, "date_column: %s\n", c.DateColumn)
		fmt.Fprintf(out, "customer_column: %s\n", c.CustomerColumn)
		fmt.Fprintf(out, "status_column: %s\n", c.StatusColumn)
		fmt.Fprintf(out, "visitors_column: %s\n", c.VisitorsColumn)
		fmt.Fprintf(out, "churn_status: %s\n", c.ChurnStatus)
		fmt.Fprintf(out, "lifespan_months: %g\n", c.LifespanMonths)
		fmt.Fprintf(out, "listen_addr: %s\n", c.ListenAddr)
		fmt.Fprintf(out, "max_upload_mb: %d\n", c.MaxUploadMB)
		fmt.Fprintf(out, "rate_limit_rps: %g\n", c.RateLimitRPS)
		fmt.Fprintf(out, "rate_limit_burst: %d\n", c.RateLimitBurst)
		fmt.Fprintf(out, "cors_origins: %s\n", strings.Join(c.CORSOrigins, ","))
		fmt.Fprintf(out, "log_level: %s\n", c.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", c.LogFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c := *current()
		if err := setConfigValue(&c, key, val); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&c, cfgFile); err != nil {
			return err
		}
		cfg = &c
		fmt.Println("✓ Saved config")
		return nil
	},
}

func setConfigValue(c *cfgpkg.Global, key, val string) error {
	strs := map[string]*string{
		"output_format":       &c.OutputFormat,
		"delimiter":           &c.Delimiter,
		"decimal_separator":   &c.DecimalSeparator,
		"thousands_separator": &c.ThousandsSeparator,
		"revenue_column":      &c.RevenueColumn,
		"date_column":         &c.DateColumn,
		"customer_column":     &c.CustomerColumn,
		"status_column":       &c.StatusColumn,
		"visitors_column":     &c.VisitorsColumn,
		"churn_status":        &c.ChurnStatus,
		"listen_addr":         &c.ListenAddr,
		"log_level":           &c.LogLevel,
		"log_format":          &c.LogFormat,
	}
	ints := map[string]*int{
		"max_rows":         &c.MaxRows,
		"sample_rows":      &c.SampleRows,
		"workers":          &c.Workers,
		"max_upload_mb":    &c.MaxUploadMB,
		"rate_limit_burst": &c.RateLimitBurst,
	}
	floats := map[string]*float64{
		"lifespan_months": &c.LifespanMonths,
		"rate_limit_rps":  &c.RateLimitRPS,
	}
	if p, ok := strs[key]; ok {
		*p = val
		return nil
	}
	if p, ok := ints[key]; ok {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", key, err)
		}
		*p = i
		return nil
	}
	if p, ok := floats[key]; ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %w", key, err)
		}
		*p = f
		return nil
	}
	if key == "cors_origins" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
		return nil
	}
	return fmt.Errorf("unknown key: %s", key)
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func orAuto(s string) string {
	if s == "" {
		return "(auto)"
	}
	return s
}
