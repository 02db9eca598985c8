/*
PURPOSE:
  Defines the 'batch' subcommand.
  Estimates every shipment in a CSV or YAML file.

REQUIREMENTS:
  User-specified:
  - Estimate many shipments at once.
  - Specific flags for overrides.

  Implementation-discovered:
  - Need to load config first.
  - Apply flag overrides to config.

ARCHITECTURE INTEGRATION:
  - Calls: internal/batch.Run()
  - Uses: internal/config

ERROR HANDLING:
  - Returns error if config load fails or the input cannot be processed.

IMPLEMENTATION RULES:
  - Setup flags in init().
  - Logic: Load Config -> Override -> batch.Run.

USAGE:
  load-estimator batch --input shipments.csv -o ./out

SELF-HEALING INSTRUCTIONS:
  - Check flag names match Config struct fields generally.

RELATED FILES:
  - internal/batch/runner.go

MAINTENANCE:
  - Update when adding new CLI overrides.
*/

package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daryltucker/load-estimator/internal/batch"
)

var (
	inputFile      string
	outputOverride string
	pauseOverride  time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Estimate every shipment in a CSV or YAML file",
	Long: `Reads shipments from a file and requests an estimate for each, one at a time.

CSV input needs a header with material, weight and distance_km columns.
YAML input is a document with a 'shipments' list of the same keys.
Rows with an empty field are skipped and reported.

Results are appended to estimates.csv and estimates.jsonl in the output directory.`,
	Example: `  # CSV input, results next to it
  load-estimator batch --input shipments.csv

  # YAML input, custom output directory, one second between requests
  load-estimator batch -i shipments.yaml -o ./estimates --pause 1s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputFile == "" {
			return errors.New("--input is required")
		}

		// 1. Load Config
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// 2. Overrides
		if outputOverride != "" {
			cfg.Batch.OutputDir = outputOverride
		}
		if cmd.Flags().Changed("pause") {
			cfg.Batch.Pause = pauseOverride
		}

		// 3. Execution
		s, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		summary, err := batch.Run(cmd.Context(), cfg, s.estimator, s.provider.Name(), s.provider.Model(), inputFile)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d shipments: %d estimated, %d fallback, %d skipped\n",
			summary.Total, summary.Service, summary.Fallback, summary.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVarP(&inputFile, "input", "i", "", "CSV or YAML file of shipments")
	batchCmd.Flags().StringVarP(&outputOverride, "output-dir", "o", "", "Output directory for results (CSV/JSONL)")
	batchCmd.Flags().DurationVar(&pauseOverride, "pause", 0, "Pause between requests, e.g. 500ms")
}
