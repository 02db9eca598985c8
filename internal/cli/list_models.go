/*
PURPOSE:
  Defines the 'list-models' subcommand.
  Helps debug connectivity and credentials before estimating.

REQUIREMENTS:
  User-specified:
  - List available models.

  Implementation-discovered:
  - Useful validation step: an estimate silently falls back, this does not.

ARCHITECTURE INTEGRATION:
  - Calls: internal/engine Provider.ListModels()

ERROR HANDLING:
  - Returns the provider error (bad key, unreachable host).

IMPLEMENTATION RULES:
  - Simple output to stdout.

USAGE:
  load-estimator list-models --provider ollama

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/engine/client.go

MAINTENANCE:
  - None.
*/

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daryltucker/load-estimator/internal/engine"
)

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List models available from the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		p, err := engine.New(cfg)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Querying %s...\n", p.Name())
		models, err := p.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		for _, m := range models {
			marker := " "
			if m == p.Model() {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listModelsCmd)
}
