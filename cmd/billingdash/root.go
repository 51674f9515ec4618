package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/billingdash/internal/config"
	"github.com/gyeh/billingdash/internal/exitcode"
	"github.com/gyeh/billingdash/internal/logging"
)

// cfg starts from defaults overlaid with .env and the environment, so flag
// defaults registered by every subcommand already reflect them.
var cfg = envConfig()

func envConfig() config.Config {
	c := config.Default()
	if err := c.LoadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return c
}

var rootCmd = &cobra.Command{
	Use:   "billingdash",
	Short: "Surgery billing analytics: import, query and serve",
	Long: "Imports practice-management billing exports (.xlsx or Parquet) into Postgres, " +
		"rolls transactions up into procedure summaries and serves the analytics API.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", cfg.DSN, "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text or json")
	pf.StringVar(&cfg.ConfigPath, "config", "", "Optional YAML config file")
}

// loadConfig merges the --config file over env and flags, then validates.
func loadConfig(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	if cfg.ConfigPath != "" {
		if err := cfg.LoadFromFile(cfg.ConfigPath); err != nil {
			log.Error().Err(err).Str("config", cfg.ConfigPath).Msg("config load failed")
			os.Exit(exitcode.UsageError)
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	return nil
}
