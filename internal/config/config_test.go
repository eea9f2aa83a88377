package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	c := Defaults()
	if !c.Rate().Equal(decimal.RequireFromString("0.45")) {
		t.Errorf("Rate = %s, want 0.45", c.Rate())
	}
	rates, err := c.Rates()
	if err != nil {
		t.Fatalf("Rates: %v", err)
	}
	if len(rates) != 5 || !rates[4].Equal(decimal.NewFromInt(1)) {
		t.Errorf("Rates = %v", rates)
	}
	if c.TopN != 20 || c.LogFormat != "text" || c.LogLevel != "info" {
		t.Errorf("defaults = %+v", c)
	}
}

func TestLoadFromFile_Valid(t *testing.T) {
	path := writeFile(t, "config.yaml", ""+
		"log_level: debug\n"+
		"capture_rate: 0.6\n"+
		"sensitivity_rates: [0.5, 0.75]\n"+
		"payer: Medicare\n"+
		"workers: 4\n"+
		"top_n: 5\n"+
		"min_delta: 100\n"+
		"hide_penny: true\n")

	c := Defaults()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if !c.Rate().Equal(decimal.RequireFromString("0.6")) {
		t.Errorf("Rate = %s", c.Rate())
	}
	if c.SensitivityRates != "0.5,0.75" {
		t.Errorf("SensitivityRates = %q", c.SensitivityRates)
	}
	p, ok, err := c.PreferredPayer()
	if err != nil || !ok || p.Name != "MEDICARE" {
		t.Errorf("PreferredPayer = %+v %v %v", p, ok, err)
	}
	if c.Workers != 4 || c.TopN != 5 || !c.HidePenny || c.LogLevel != "debug" {
		t.Errorf("config = %+v", c)
	}
	if md := c.MinDeltaFilter(); !md.Valid || !md.Decimal.Equal(decimal.NewFromInt(100)) {
		t.Errorf("MinDeltaFilter = %v", md)
	}
}

func TestLoadFromFile_KeepsUnsetKeys(t *testing.T) {
	path := writeFile(t, "config.yaml", "top_n: 3\n")

	c := Defaults()
	c.CaptureRate = 0.8
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.CaptureRate != 0.8 || c.TopN != 3 {
		t.Errorf("CaptureRate=%v TopN=%d", c.CaptureRate, c.TopN)
	}
}

func TestLoadFromFile_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"rate_high", "capture_rate: 1.5\n", "capture rate"},
		{"rate_negative", "capture_rate: -0.1\n", "capture rate"},
		{"sensitivity_high", "sensitivity_rates: [0.5, 2]\n", "sensitivity rate"},
		{"unknown_payer", "payer: medicaid\n", "unknown payer"},
		{"negative_workers", "workers: -1\n", "workers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "config.yaml", tt.body)
			c := Defaults()
			err := c.LoadFromFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	c := Defaults()
	if err := c.LoadFromFile("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadFromFile_BadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "capture_rate: [not, a, number\n")
	c := Defaults()
	if err := c.LoadFromFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRates_Parse(t *testing.T) {
	c := Config{SensitivityRates: " 0.40, ,1.00 "}
	rates, err := c.Rates()
	if err != nil {
		t.Fatalf("Rates: %v", err)
	}
	if len(rates) != 2 || !rates[0].Equal(decimal.RequireFromString("0.4")) {
		t.Errorf("Rates = %v", rates)
	}

	for _, bad := range []string{"abc", ",", "0.5,1.01"} {
		c := Config{SensitivityRates: bad}
		if _, err := c.Rates(); err == nil {
			t.Errorf("Rates(%q) should fail", bad)
		}
	}
}

func TestValidate(t *testing.T) {
	catalog := writeFile(t, "catalog.parquet", "x")

	c := Defaults()
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "--catalog") {
		t.Errorf("missing catalog: %v", err)
	}

	c.CatalogPath = catalog
	if err := c.Validate(); err != nil {
		t.Errorf("valid config: %v", err)
	}

	c.NADACPath = "/nonexistent/nadac.parquet"
	if err := c.Validate(); err == nil {
		t.Error("expected error for missing nadac file")
	}
	c.NADACPath = ""

	c.CaptureRate = 1.01
	if err := c.Validate(); err == nil {
		t.Error("expected error for capture rate > 1")
	}
	c.CaptureRate = 1

	c.Export = true
	if err := c.ValidateWithDSN(); err == nil || !strings.Contains(err.Error(), "RX340B_DSN") {
		t.Errorf("export without dsn: %v", err)
	}
	c.DSN = "postgres://localhost/db"
	if err := c.ValidateWithDSN(); err != nil {
		t.Errorf("export with dsn: %v", err)
	}
}
