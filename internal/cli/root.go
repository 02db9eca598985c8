/*
PURPOSE:
  Defines the root Cobra command for the Load Estimator CLI.
  Handles global flags and the shared setup every subcommand needs.

REQUIREMENTS:
  User-specified:
  - Provide a CLI interface.
  - Support global flags like --config and --provider.

  Implementation-discovered:
  - Needs to expose an Execute() function for main.go.
  - Flag overrides must land before the credential is resolved, because the
    credential variable depends on the provider.

ARCHITECTURE INTEGRATION:
  - Called by: cmd/load-estimator/main.go
  - Calls: Child commands (estimate, batch, serve, list-models, config)
  - Uses: internal/config, internal/engine, internal/estimate, internal/output

ERROR HANDLING:
  - Returns error to main.go for exit code handling.

IMPLEMENTATION RULES:
  - Use `PersistentFlags()` for flags available to all subcommands.
  - Keep Run logic in subcommands. Root only loads config.

USAGE:
  Called by main.go.

SELF-HEALING INSTRUCTIONS:
  - If adding new global flags, add them to init() and applyOverrides().

RELATED FILES:
  - cmd/load-estimator/main.go
  - internal/config/config.go

MAINTENANCE:
  - Update when adding global configuration options.
*/

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/daryltucker/load-estimator/internal/config"
	"github.com/daryltucker/load-estimator/internal/engine"
	"github.com/daryltucker/load-estimator/internal/estimate"
	"github.com/daryltucker/load-estimator/internal/output"
)

var (
	// cfgFile stores the path to the config file (if specified via flag)
	cfgFile string

	providerOverride  string
	modelOverride     string
	logLevelOverride  string
	logFormatOverride string

	rootCmd = &cobra.Command{
		Use:   "load-estimator",
		Short: "Truck, cost, fuel and toll estimates for freight shipments",
		Long: `Asks a generative-content service for a structured load estimate:
recommended truck, cost range, fuel and tolls for a shipment.

When the service cannot be reached or answers badly, a fixed standard
estimate is shown instead. Use 'estimate --help' to get started.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute executes the root command. Canceling ctx stops in-flight estimates,
// batches and the server.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./load_estimator.yaml)")
	pf.StringVar(&providerOverride, "provider", "", "estimation provider: gemini, openai or ollama")
	pf.StringVar(&modelOverride, "model", "", "model name (default depends on provider)")
	pf.StringVar(&logLevelOverride, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&logFormatOverride, "log-format", "", "log format: text or json")
}

// loadConfig reads the config file, applies flag overrides and configures
// the logger on the command's error stream.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	applyOverrides(cfg, os.LookupEnv)

	if err := output.Configure(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, lookup func(string) (string, bool)) {
	if providerOverride != "" {
		cfg.SetProvider(providerOverride)
		cfg.ReloadAPIKey(lookup)
	}
	if modelOverride != "" {
		cfg.Model = modelOverride
	}
	if logLevelOverride != "" {
		cfg.Log.Level = logLevelOverride
	}
	if logFormatOverride != "" {
		cfg.Log.Format = logFormatOverride
	}
}

// session bundles what the estimating commands share.
type session struct {
	cfg       *config.Config
	provider  engine.Provider
	journal   *output.MultiWriter
	estimator *estimate.Estimator
}

// openSession builds the provider, opens the journal and wires the estimator.
func openSession(cfg *config.Config) (*session, error) {
	provider, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}

	journal, err := output.OpenJournal(cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if cfg.APIKey == "" && cfg.Provider != "ollama" {
		output.Logger.Warn("No API key configured; estimates will fall back to defaults", "provider", cfg.Provider)
	}

	opts := []estimate.Option{
		estimate.WithRegion(cfg.Region),
		estimate.WithCurrency(cfg.Currency),
	}
	if journal.Len() > 0 {
		opts = append(opts, estimate.WithRecorder(journal))
	}

	return &session{
		cfg:       cfg,
		provider:  provider,
		journal:   journal,
		estimator: estimate.New(provider, opts...),
	}, nil
}

func (s *session) Close() {
	if err := s.journal.Close(); err != nil {
		output.Logger.Error("Failed to close journal", "error", err)
	}
}
