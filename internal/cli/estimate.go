/*
PURPOSE:
  `estimate` command: one shipment in, one estimate out.

REQUIREMENTS:
  User-specified:
  - A failed service call still prints the fallback and exits 0.

USAGE:
  load-estimator estimate "Steel Pipes" "5 tons" 350 --json
*/

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/daryltucker/load-estimator/internal/model"
)

var (
	materialFlag string
	weightFlag   string
	distanceFlag string
	jsonOutput   bool
)

var estimateCmd = &cobra.Command{
	Use:   "estimate [MATERIAL WEIGHT DISTANCE_KM]",
	Short: "Estimate truck, cost, fuel and tolls for one shipment",
	Long: `Requests a load estimate for a single shipment.

The shipment can be given with flags or as three positional arguments.
If the service fails for any reason a standard fallback estimate is printed;
the command still exits successfully.`,
	Example: `  # Flags
  load-estimator estimate --material "Steel Pipes" --weight "5 tons" --distance 350

  # Positional
  load-estimator estimate "Rice Bags" "10 tons" 800

  # Machine-readable output
  load-estimator estimate "Cement" "20 tons" 120 --json`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return fmt.Errorf("expected 0 or 3 arguments, got %d", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		shipment := model.Shipment{
			Material:   materialFlag,
			Weight:     weightFlag,
			DistanceKm: distanceFlag,
		}
		if len(args) == 3 {
			shipment = model.Shipment{Material: args[0], Weight: args[1], DistanceKm: args[2]}
		}
		if !shipment.Complete() {
			return errors.New("material, weight and distance are all required")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		s, err := openSession(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		est := s.estimator.Estimate(cmd.Context(), shipment.Material, shipment.Weight, shipment.DistanceKm)

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(est)
		}
		return printEstimate(cmd.OutOrStdout(), shipment, est)
	},
}

func printEstimate(w io.Writer, s model.Shipment, est model.LoadEstimate) error {
	_, err := fmt.Fprintf(w, `Shipment:          %s, %s, %s km
Recommended truck: %s
Estimated cost:    %s
Fuel:              %s
Tolls:             %s

%s
`, s.Material, s.Weight, s.DistanceKm,
		est.RecommendedTruck, est.EstimatedCost, est.FuelEstimate, est.TollEstimate,
		est.Explanation)
	return err
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringVar(&materialFlag, "material", "", "material being shipped")
	estimateCmd.Flags().StringVar(&weightFlag, "weight", "", "shipment weight, e.g. \"5 tons\"")
	estimateCmd.Flags().StringVar(&distanceFlag, "distance", "", "distance in km")
	estimateCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the estimate as JSON")
}
