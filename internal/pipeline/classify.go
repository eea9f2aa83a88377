package pipeline

import (
	"github.com/rs/zerolog"

	"github.com/gyeh/rx340b/internal/model"
	"github.com/gyeh/rx340b/internal/risk"
)

// Classification is the risk-annotated catalog.
type Classification struct {
	Drugs      []model.Drug
	PennyFlags []risk.PennyFlag
	PennySet   map[string]struct{}

	IRAFlagged   int64
	PennyFlagged int64
}

// Classify attaches IRA and penny pricing flags to every drug. Missing
// reference data degrades to "not flagged" with a warning. Each IRA hit is
// logged by the registry itself.
func Classify(log zerolog.Logger, reg *risk.Registry, drugs []model.Drug, records []risk.PricingRecord) *Classification {
	if reg.Len() == 0 {
		log.Warn().Msg("ira registry is empty; no drug will be flagged for negotiation risk")
	}
	if records == nil {
		log.Warn().Msg("no NADAC data; penny pricing not checked")
	}

	flags := risk.ClassifyPennyPricing(records)
	c := &Classification{
		Drugs:      make([]model.Drug, len(drugs)),
		PennyFlags: flags,
		PennySet:   risk.PennySet(flags),
	}

	for i, d := range drugs {
		ira := reg.Lookup(d.DrugName)
		_, penny := c.PennySet[d.NormalizedNDC()]
		if ira.IsIRA {
			c.IRAFlagged++
		}
		if penny {
			c.PennyFlagged++
		}
		c.Drugs[i] = d.WithRiskFlags(ira.IsIRA, penny)
	}

	log.Info().
		Int64("ira_flagged", c.IRAFlagged).
		Int64("penny_flagged", c.PennyFlagged).
		Int("penny_records", len(flags)).
		Msg("classification complete")
	return c
}
