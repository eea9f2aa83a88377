package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gyeh/rx340b/internal/config"
)

var (
	cfg        = config.Defaults()
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "rx340b",
	Short: "340B site-of-care margin optimizer",
	Long: "Computes retail, Medicare and commercial medical margins for a 340B drug catalog, " +
		"recommends the most profitable pathway, and flags IRA and penny pricing risk.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfigFile,
}

func init() {
	// Let subcommand groups add their own pre-run without hiding this one.
	cobra.EnableTraverseRunHooks = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("RX340B_DSN"), "Postgres connection string (or set RX340B_DSN)")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	pf.StringVar(&configPath, "config", "", "YAML config file; explicit flags take precedence")
}

// loadConfigFile merges --config into cfg without clobbering flags the user
// set explicitly.
func loadConfigFile(cmd *cobra.Command, args []string) error {
	if configPath == "" {
		return nil
	}
	type snapshot struct {
		value string
		slice []string
	}
	changed := make(map[string]snapshot)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		snap := snapshot{value: f.Value.String()}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			snap.slice = sv.GetSlice()
		}
		changed[f.Name] = snap
	})
	if err := cfg.LoadFromFile(configPath); err != nil {
		return err
	}
	for name, snap := range changed {
		f := cmd.Flags().Lookup(name)
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			if err := sv.Replace(snap.slice); err != nil {
				return fmt.Errorf("reapply --%s: %w", name, err)
			}
			continue
		}
		if err := f.Value.Set(snap.value); err != nil {
			return fmt.Errorf("reapply --%s: %w", name, err)
		}
	}
	return nil
}
