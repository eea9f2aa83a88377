package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyeh/rx340b/internal/catalog"
	"github.com/gyeh/rx340b/internal/exitcode"
	"github.com/gyeh/rx340b/internal/logging"
	"github.com/gyeh/rx340b/internal/risk"
)

var pennyNDCs []string

var pennyCmd = &cobra.Command{
	Use:   "penny",
	Short: "Report penny-priced NDCs in a NADAC file",
	RunE:  runPenny,
}

func init() {
	f := pennyCmd.Flags()
	f.StringVar(&cfg.NADACPath, "nadac", "", "Path to NADAC Parquet file (required)")
	f.StringSliceVar(&pennyNDCs, "ndc", nil, "Check only these NDCs (repeatable or comma separated)")
	_ = pennyCmd.MarkFlagRequired("nadac")
	rootCmd.AddCommand(pennyCmd)
}

func runPenny(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	out := cmd.OutOrStdout()

	records, err := catalog.LoadNADAC(cfg.NADACPath)
	if err != nil {
		log.Error().Err(err).Str("file", cfg.NADACPath).Msg("failed to load NADAC file")
		os.Exit(exitcode.LoadError)
	}

	if len(pennyNDCs) > 0 {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NDC\tPENNY\tDISCOUNT %\tNADAC/UNIT\tSTATUS")
		for _, ndc := range pennyNDCs {
			st := risk.PennyStatusFor(ndc, records)
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				ndc, yesNo(st.IsPennyPriced), optPct(st.DiscountPct), optMoney(st.NADACPerUnit), st.Message)
		}
		return tw.Flush()
	}

	sum := risk.SummarizePenny(records)
	fmt.Fprintf(out, "NADAC records: %d\n", sum.Total)
	fmt.Fprintf(out, "Penny priced:  %d (%s%%)\n", sum.Flagged, sum.FlaggedPct.StringFixed(2))
	if sum.Flagged == 0 {
		return nil
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NDC\tTRIGGERS\tREASON")
	for _, f := range risk.ClassifyPennyPricing(records) {
		triggers := make([]string, len(f.Triggers))
		for i, t := range f.Triggers {
			triggers[i] = string(t)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", f.NDC, strings.Join(triggers, ","), f.Reason())
	}
	return tw.Flush()
}
