package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/dataloom-cli/internal/business"
	"github.com/KaramelBytes/dataloom-cli/internal/dataset"
)

// Global configuration structure.
type Global struct {
	OutputFormat       string `mapstructure:"output_format" yaml:"output_format" validate:"oneof=markdown json yaml"`
	Delimiter          string `mapstructure:"delimiter" yaml:"delimiter" validate:"omitempty,separator"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator" validate:"omitempty,separator"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator" validate:"omitempty,separator"`
	MaxRows            int    `mapstructure:"max_rows" yaml:"max_rows" validate:"gte=0"`
	SampleRows         int    `mapstructure:"sample_rows" yaml:"sample_rows" validate:"gte=0"`
	Workers            int    `mapstructure:"workers" yaml:"workers" validate:"gte=0"`

	// Business metric column mapping
	RevenueColumn  string  `mapstructure:"revenue_column" yaml:"revenue_column" validate:"required"`
	DateColumn     string  `mapstructure:"date_column" yaml:"date_column" validate:"required"`
	CustomerColumn string  `mapstructure:"customer_column" yaml:"customer_column" validate:"required"`
	StatusColumn   string  `mapstructure:"status_column" yaml:"status_column" validate:"required"`
	VisitorsColumn string  `mapstructure:"visitors_column" yaml:"visitors_column" validate:"required"`
	ChurnStatus    string  `mapstructure:"churn_status" yaml:"churn_status" validate:"required"`
	LifespanMonths float64 `mapstructure:"lifespan_months" yaml:"lifespan_months" validate:"gt=0"`

	// HTTP server
	ListenAddr     string   `mapstructure:"listen_addr" yaml:"listen_addr" validate:"required"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb" validate:"gt=0"`
	RateLimitRPS   float64  `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int      `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst" validate:"gte=0"`
	CORSOrigins    []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Separator keys accept exactly what the matching CLI flags accept.
	_ = v.RegisterValidation("separator", func(fl validator.FieldLevel) bool {
		_, err := Separator(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field constraints declared in struct tags.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Fields maps the configured column names onto business.Fields.
func (c *Global) Fields() business.Fields {
	return business.Fields{
		Revenue:        c.RevenueColumn,
		Date:           c.DateColumn,
		CustomerID:     c.CustomerColumn,
		Status:         c.StatusColumn,
		Visitors:       c.VisitorsColumn,
		ChurnStatus:    c.ChurnStatus,
		LifespanMonths: c.LifespanMonths,
	}
}

// DatasetOptions maps ingestion settings onto dataset.Options.
func (c *Global) DatasetOptions() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	opt.MaxRows = c.MaxRows
	var err error
	if opt.Delimiter, err = Separator(c.Delimiter); err != nil {
		return opt, fmt.Errorf("delimiter: %w", err)
	}
	if opt.Parse.DecimalSeparator, err = Separator(c.DecimalSeparator); err != nil {
		return opt, fmt.Errorf("decimal_separator: %w", err)
	}
	if opt.Parse.ThousandsSeparator, err = Separator(c.ThousandsSeparator); err != nil {
		return opt, fmt.Errorf("thousands_separator: %w", err)
	}
	return opt, nil
}

// Separator resolves a separator name (comma, tab, space, dot, semicolon) or a
// single character to a rune. The empty string resolves to 0 (auto).
func Separator(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "comma":
		return ',', nil
	case "tab", "\\t":
		return '\t', nil
	case "space":
		return ' ', nil
	case "dot":
		return '.', nil
	case "semicolon":
		return ';', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("invalid separator %q", s)
	}
	return r[0], nil
}

// Default returns the built-in configuration without reading files or env.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

func setDefaults(v *viper.Viper) {
	f := business.DefaultFields()
	v.SetDefault("output_format", "markdown")
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("max_rows", 0)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("workers", 0)
	v.SetDefault("revenue_column", f.Revenue)
	v.SetDefault("date_column", f.Date)
	v.SetDefault("customer_column", f.CustomerID)
	v.SetDefault("status_column", f.Status)
	v.SetDefault("visitors_column", f.Visitors)
	v.SetDefault("churn_status", f.ChurnStatus)
	v.SetDefault("lifespan_months", f.LifespanMonths)
	// HTTP defaults
	v.SetDefault("listen_addr", "127.0.0.1:8080")
	v.SetDefault("max_upload_mb", 10)
	v.SetDefault("rate_limit_rps", 5.0)
	v.SetDefault("rate_limit_burst", 10)
	v.SetDefault("cors_origins", []string{"http://localhost:3000"})
	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.dataloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".dataloom")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATALOOM")
	v.AutomaticEnv()
	setDefaults(v)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".dataloom"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// missing file is fine, a malformed one is not
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
