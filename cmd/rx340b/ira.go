package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyeh/rx340b/internal/db"
	"github.com/gyeh/rx340b/internal/exitcode"
	"github.com/gyeh/rx340b/internal/logging"
	"github.com/gyeh/rx340b/internal/pipeline"
	"github.com/gyeh/rx340b/internal/risk"
)

var (
	iraFromDB bool
	iraSave   bool
)

var iraCmd = &cobra.Command{
	Use:   "ira",
	Short: "Inspect and maintain the IRA negotiated-drug registry",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadRegistrySource(context.Background())
	},
}

var iraCheckCmd = &cobra.Command{
	Use:   "check NAME...",
	Short: "Classify drug names against the registry",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIRACheck,
}

var iraListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered drug",
	RunE:  runIRAList,
}

var iraReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Validate a registry source and optionally store it in ref.ira_drugs",
	RunE:  runIRAReload,
}

func init() {
	pf := iraCmd.PersistentFlags()
	pf.StringVar(&cfg.IRAFile, "ira-file", "", "CSV (drug_name,year,description) replacing the built-in registry")
	pf.BoolVar(&iraFromDB, "from-db", false, "Load the registry from ref.ira_drugs")
	iraCheckCmd.Flags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table or json")
	iraReloadCmd.Flags().BoolVar(&iraSave, "save", false, "Replace ref.ira_drugs with the loaded registry")

	iraCmd.AddCommand(iraCheckCmd, iraListCmd, iraReloadCmd)
	rootCmd.AddCommand(iraCmd)
}

// loadRegistrySource swaps the default registry's table for the configured
// source. With neither flag the built-in cohorts stay in place.
func loadRegistrySource(ctx context.Context) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	reg := risk.Default().WithLogger(log)

	switch {
	case cfg.IRAFile != "" && iraFromDB:
		log.Error().Msg("--ira-file and --from-db are mutually exclusive")
		os.Exit(exitcode.UsageError)
	case cfg.IRAFile != "":
		n, err := pipeline.ReloadRegistryFromFile(reg, cfg.IRAFile)
		if err != nil {
			log.Error().Err(err).Str("file", cfg.IRAFile).Msg("ira registry reload failed")
			os.Exit(exitcode.ValidationError)
		}
		log.Info().Int("drugs", n).Uint64("version", reg.Version()).Msg("ira registry reloaded from file")
	case iraFromDB:
		if cfg.DSN == "" {
			log.Error().Msg("--dsn or RX340B_DSN is required with --from-db")
			os.Exit(exitcode.UsageError)
		}
		pool, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			log.Error().Err(err).Msg("database connection failed")
			os.Exit(exitcode.DBConnError)
		}
		defer pool.Close()
		rows, err := db.LoadIRARows(ctx, pool)
		if err != nil {
			log.Error().Err(err).Msg("failed to read ref.ira_drugs")
			os.Exit(exitcode.LoadError)
		}
		n, err := risk.ReloadIRA(rows)
		if err != nil {
			log.Error().Err(err).Msg("ira registry reload failed")
			os.Exit(exitcode.ValidationError)
		}
		log.Info().Int("drugs", n).Uint64("version", reg.Version()).Msg("ira registry reloaded from database")
	}
	return nil
}

type iraStatusJSON struct {
	Name        string `json:"name"`
	IsIRA       bool   `json:"is_ira"`
	Year        int    `json:"year,omitempty"`
	MatchedName string `json:"matched_name,omitempty"`
	Description string `json:"description,omitempty"`
	RiskLevel   string `json:"risk_level"`
	Message     string `json:"message"`
}

func runIRACheck(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		docs := make([]iraStatusJSON, 0, len(args))
		for _, name := range args {
			st := risk.ClassifyIRA(name)
			docs = append(docs, iraStatusJSON{
				Name:        name,
				IsIRA:       st.IsIRA,
				Year:        st.Year,
				MatchedName: st.MatchedName,
				Description: st.Description,
				RiskLevel:   string(st.RiskLevel),
				Message:     st.Message,
			})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}

	for _, name := range args {
		st := risk.ClassifyIRA(name)
		fmt.Fprintf(out, "%-10s %s\n", st.RiskLevel, st.Message)
	}
	return nil
}

func runIRAList(cmd *cobra.Command, args []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DRUG\tYEAR\tDESCRIPTION")
	for _, e := range risk.Default().Entries() {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Name, e.Year, e.Description)
	}
	return tw.Flush()
}

func runIRAReload(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()
	reg := risk.Default()

	fmt.Fprintf(cmd.OutOrStdout(), "IRA registry: %d drugs (version %d)\n", reg.Len(), reg.Version())
	if !iraSave {
		return nil
	}
	if cfg.DSN == "" {
		log.Error().Msg("--dsn or RX340B_DSN is required with --save")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	entries := reg.Entries()
	rows := make([]risk.IRARow, len(entries))
	for i, e := range entries {
		rows[i] = risk.IRARow{DrugName: e.Name, Year: e.Year, Description: e.Description}
	}
	n, err := db.SaveIRARows(ctx, pool, rows)
	if err != nil {
		log.Error().Err(err).Msg("failed to save ira registry")
		os.Exit(exitcode.ExportError)
	}
	log.Info().Int64("drugs", n).Msg("ref.ira_drugs replaced")
	return nil
}
