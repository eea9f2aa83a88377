package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/gyeh/rx340b/internal/margin"
	"github.com/gyeh/rx340b/internal/model"
)

// Config holds all runtime configuration for an rx340b run.
type Config struct {
	DSN         string
	CatalogPath string
	NADACPath   string
	IRAFile     string // CSV replacing the built-in IRA registry
	LogFormat   string // "text" or "json"
	LogLevel    string

	CaptureRate      float64
	SensitivityRates string // comma-separated, e.g. "0.40,0.45,0.60"
	Payer            string // non-empty selects head-to-head mode
	Workers          int

	TopN      int
	MinDelta  float64
	Search    string
	IRAOnly   bool
	HidePenny bool

	Export bool
	DryRun bool
}

// Defaults returns a Config with the standard assumptions filled in.
func Defaults() Config {
	return Config{
		LogFormat:        "text",
		LogLevel:         "info",
		CaptureRate:      margin.DefaultCaptureRate.InexactFloat64(),
		SensitivityRates: "0.40,0.45,0.60,0.80,1.00",
		TopN:             20,
	}
}

// yamlConfig is the on-disk YAML structure. Pointers distinguish absent keys
// from zero values so a file only overrides what it names.
type yamlConfig struct {
	LogLevel         *string   `yaml:"log_level"`
	NADACPath        *string   `yaml:"nadac_file"`
	IRAFile          *string   `yaml:"ira_file"`
	CaptureRate      *float64  `yaml:"capture_rate"`
	SensitivityRates []float64 `yaml:"sensitivity_rates"`
	Payer            *string   `yaml:"payer"`
	Workers          *int      `yaml:"workers"`
	TopN             *int      `yaml:"top_n"`
	MinDelta         *float64  `yaml:"min_delta"`
	HidePenny        *bool     `yaml:"hide_penny"`
	IRAOnly          *bool     `yaml:"ira_only"`
}

// LoadFromFile reads a YAML config file and merges the keys it sets into Config.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if yc.LogLevel != nil {
		c.LogLevel = *yc.LogLevel
	}
	if yc.NADACPath != nil {
		c.NADACPath = *yc.NADACPath
	}
	if yc.IRAFile != nil {
		c.IRAFile = *yc.IRAFile
	}
	if yc.CaptureRate != nil {
		c.CaptureRate = *yc.CaptureRate
	}
	if len(yc.SensitivityRates) > 0 {
		parts := make([]string, len(yc.SensitivityRates))
		for i, r := range yc.SensitivityRates {
			parts[i] = strconv.FormatFloat(r, 'f', -1, 64)
		}
		c.SensitivityRates = strings.Join(parts, ",")
	}
	if yc.Payer != nil {
		c.Payer = *yc.Payer
	}
	if yc.Workers != nil {
		c.Workers = *yc.Workers
	}
	if yc.TopN != nil {
		c.TopN = *yc.TopN
	}
	if yc.MinDelta != nil {
		c.MinDelta = *yc.MinDelta
	}
	if yc.HidePenny != nil {
		c.HidePenny = *yc.HidePenny
	}
	if yc.IRAOnly != nil {
		c.IRAOnly = *yc.IRAOnly
	}
	return c.validateTuning()
}

// Rate returns the capture rate as an exact decimal.
func (c *Config) Rate() decimal.Decimal {
	return decimal.NewFromFloat(c.CaptureRate)
}

// Rates parses SensitivityRates. An empty value yields the default rates.
func (c *Config) Rates() ([]decimal.Decimal, error) {
	if strings.TrimSpace(c.SensitivityRates) == "" {
		return margin.DefaultSensitivityRates(), nil
	}
	var out []decimal.Decimal
	for _, part := range strings.Split(c.SensitivityRates, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := decimal.NewFromString(part)
		if err != nil {
			return nil, fmt.Errorf("sensitivity rate %q: %w", part, err)
		}
		if !margin.ValidCaptureRate(r) {
			return nil, fmt.Errorf("sensitivity rate %s outside [0, 1]", r)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sensitivity rates given")
	}
	return out, nil
}

// PreferredPayer returns the head-to-head payer, if one is configured.
func (c *Config) PreferredPayer() (model.Payer, bool, error) {
	if strings.TrimSpace(c.Payer) == "" {
		return model.Payer{}, false, nil
	}
	p, err := model.ParsePayer(c.Payer)
	if err != nil {
		return model.Payer{}, false, err
	}
	return p, true, nil
}

// MinDeltaFilter returns MinDelta as a filter bound; zero means no bound.
func (c *Config) MinDeltaFilter() decimal.NullDecimal {
	if c.MinDelta == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(c.MinDelta))
}

// validateTuning checks the numeric knobs that do not depend on files.
func (c *Config) validateTuning() error {
	if !margin.ValidCaptureRate(c.Rate()) {
		return fmt.Errorf("capture rate %v outside [0, 1]", c.CaptureRate)
	}
	if _, err := c.Rates(); err != nil {
		return err
	}
	if _, _, err := c.PreferredPayer(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.TopN < 0 {
		return fmt.Errorf("top-n must be >= 0, got %d", c.TopN)
	}
	if c.MinDelta < 0 {
		return fmt.Errorf("min-delta must be >= 0, got %v", c.MinDelta)
	}
	return nil
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.CatalogPath == "" {
		return fmt.Errorf("--catalog is required")
	}
	if _, err := os.Stat(c.CatalogPath); err != nil {
		return fmt.Errorf("catalog not accessible: %w", err)
	}
	if c.NADACPath != "" {
		if _, err := os.Stat(c.NADACPath); err != nil {
			return fmt.Errorf("nadac file not accessible: %w", err)
		}
	}
	if c.IRAFile != "" {
		if _, err := os.Stat(c.IRAFile); err != nil {
			return fmt.Errorf("ira file not accessible: %w", err)
		}
	}
	return c.validateTuning()
}

// ValidateWithDSN checks the run config and that a DSN is present when the
// run writes to the database.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Export && c.DSN == "" {
		return fmt.Errorf("--dsn or RX340B_DSN is required with --export")
	}
	return nil
}
