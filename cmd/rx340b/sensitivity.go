package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/rx340b/internal/catalog"
	"github.com/gyeh/rx340b/internal/exitcode"
	"github.com/gyeh/rx340b/internal/logging"
	"github.com/gyeh/rx340b/internal/margin"
	"github.com/gyeh/rx340b/internal/model"
	"github.com/gyeh/rx340b/internal/normalize"
)

var sensitivityNDC string

var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity",
	Short: "Show how one drug's recommendation changes with the retail capture rate",
	RunE:  runSensitivity,
}

func init() {
	f := sensitivityCmd.Flags()
	f.StringVar(&cfg.CatalogPath, "catalog", "", "Path to catalog Parquet file (required)")
	f.StringVar(&sensitivityNDC, "ndc", "", "NDC of the drug to analyze (required, any format)")
	f.StringVar(&cfg.SensitivityRates, "rates", cfg.SensitivityRates, "Comma-separated capture rates")
	f.StringVarP(&outputFormat, "output", "o", "table", "Output format: table or json")
	_ = sensitivityCmd.MarkFlagRequired("catalog")
	_ = sensitivityCmd.MarkFlagRequired("ndc")
	rootCmd.AddCommand(sensitivityCmd)
}

type sensitivityJSON struct {
	NDC       string               `json:"ndc"`
	DrugName  string               `json:"drug_name"`
	Rows      []sensitivityRowJSON `json:"rows"`
	Crossover *crossoverJSON       `json:"crossover"`
}

// Medical margins are 0 when the drug has no medical path; HasMedicalPath
// tells a real zero apart.
type sensitivityRowJSON struct {
	CaptureRate    float64 `json:"capture_rate"`
	RetailNet      float64 `json:"retail_net_margin"`
	Medicare       float64 `json:"medicare_margin"`
	Commercial     float64 `json:"commercial_margin"`
	HasMedicalPath bool    `json:"has_medical_path"`
	Recommendation string  `json:"recommendation"`
}

type crossoverJSON struct {
	CaptureRate float64 `json:"capture_rate"`
	Direction   string  `json:"direction"`
}

func runSensitivity(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	rates, err := cfg.Rates()
	if err != nil {
		log.Error().Err(err).Msg("invalid capture rates")
		os.Exit(exitcode.UsageError)
	}

	res, err := catalog.Load(cfg.CatalogPath, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to load catalog")
		os.Exit(exitcode.LoadError)
	}
	d, ok := findDrug(res.Drugs, sensitivityNDC)
	if !ok {
		log.Error().Str("ndc", sensitivityNDC).Msg("ndc not found in catalog")
		os.Exit(exitcode.ValidationError)
	}

	rows := margin.Sensitivity(d, rates)
	if outputFormat != "json" {
		return renderSensitivity(cmd.OutOrStdout(), d, rows)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(sensitivityDoc(d, rows)); err != nil {
		return fmt.Errorf("encode sensitivity: %w", err)
	}
	return nil
}

func sensitivityDoc(d model.Drug, rows []margin.SensitivityRow) sensitivityJSON {
	doc := sensitivityJSON{NDC: d.NormalizedNDC(), DrugName: d.DrugName}
	for _, r := range rows {
		doc.Rows = append(doc.Rows, sensitivityRowJSON{
			CaptureRate:    r.CaptureRate.InexactFloat64(),
			RetailNet:      r.RetailNet.InexactFloat64(),
			Medicare:       r.Medicare.InexactFloat64(),
			Commercial:     r.Commercial.InexactFloat64(),
			HasMedicalPath: r.HasMedicalPath,
			Recommendation: string(r.Recommended),
		})
	}
	if c, ok := margin.FindCrossover(rows); ok {
		doc.Crossover = &crossoverJSON{CaptureRate: c.Rate.InexactFloat64(), Direction: string(c.Direction)}
	}
	return doc
}

func findDrug(drugs []model.Drug, ndc string) (model.Drug, bool) {
	key := normalize.NDC11(ndc)
	if key == "" {
		return model.Drug{}, false
	}
	for _, d := range drugs {
		if d.NormalizedNDC() == key {
			return d, true
		}
	}
	return model.Drug{}, false
}
