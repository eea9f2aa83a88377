package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gyeh/rx340b/internal/config"
	"github.com/gyeh/rx340b/internal/model"
	"github.com/gyeh/rx340b/internal/normalize"
	"github.com/gyeh/rx340b/internal/risk"
)

// PreflightResult holds the settings resolved before any row is read.
type PreflightResult struct {
	CatalogPath   string
	CatalogSHA256 string
	CatalogSize   int64

	CaptureRate decimal.Decimal
	Mode        model.ResolutionMode
	// Payer is set in head-to-head mode only.
	Payer   model.Payer
	Workers int
}

// Preflight validates the config, hashes the catalog and resolves the
// analysis mode.
func Preflight(log zerolog.Logger, cfg *config.Config) (*PreflightResult, error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("preflight validate: %w", err)
	}

	sha, size, err := normalize.FileDigest(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("preflight digest: %w", err)
	}

	pf := &PreflightResult{
		CatalogPath:   cfg.CatalogPath,
		CatalogSHA256: sha,
		CatalogSize:   size,
		CaptureRate:   cfg.Rate(),
		Mode:          model.ModeBestOfThree,
		Workers:       cfg.Workers,
	}
	payer, ok, err := cfg.PreferredPayer()
	if err != nil {
		return nil, fmt.Errorf("preflight payer: %w", err)
	}
	if ok {
		pf.Mode = model.ModeHeadToHead
		pf.Payer = payer
	}

	log.Info().
		Str("file", filepath.Base(cfg.CatalogPath)).
		Str("sha256", sha).
		Int64("bytes", pf.CatalogSize).
		Str("capture_rate", pf.CaptureRate.String()).
		Str("mode", string(pf.Mode)).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")

	return pf, nil
}

// ReloadRegistryFromFile replaces reg's table with the rows of an IRA CSV file.
func ReloadRegistryFromFile(reg *risk.Registry, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open ira file: %w", err)
	}
	defer f.Close()

	rows, err := risk.LoadIRACSV(f)
	if err != nil {
		return 0, err
	}
	return reg.Reload(rows)
}
