/*
PURPOSE:
  The prompt and the response schema sent to every provider.

IMPLEMENTATION RULES:
  - Shipment values are embedded verbatim.
  - Property names here must match estimateFields in parse.go.

RELATED FILES:
  - internal/estimate/parse.go
*/

package estimate

import (
	"fmt"

	"github.com/daryltucker/load-estimator/internal/model"
)

// Schema is the structured response every provider is asked for.
var Schema = model.Schema{
	Name: "load_estimate",
	Properties: []model.Property{
		{Name: "recommendedTruck", Description: "Vehicle class or model, e.g. Tata Ace, Eicher 19ft, 32ft MXL"},
		{Name: "estimatedCost", Description: "Cost range in local currency, e.g. ₹5,000 - ₹6,000"},
		{Name: "fuelEstimate", Description: "Approximate litres of diesel"},
		{Name: "tollEstimate", Description: "Approximate toll charges in local currency"},
		{Name: "explanation", Description: "A very brief one-sentence explanation"},
	},
}

const promptTemplate = `
As an expert %[1]s Logistics Manager, provide a structured estimate for transporting goods.

Details:
- Material: %[2]s
- Weight: %[3]s
- Distance: %[4]s km
- Region: %[1]s

Provide a JSON response with:
1. recommendedTruck (e.g., Tata Ace, Eicher 19ft, 32ft MXL, etc.)
2. estimatedCost (Range in %[5]s, e.g. "₹5,000 - ₹6,000")
3. fuelEstimate (Approximate Litres of Diesel)
4. tollEstimate (Approximate Toll charges in %[5]s)
5. explanation (A very brief 1-sentence explanation)
`

// BuildPrompt embeds the shipment verbatim. Inputs are not validated or
// escaped; an empty material is passed through as-is.
func BuildPrompt(s model.Shipment, region, currency string) string {
	return fmt.Sprintf(promptTemplate, region, s.Material, s.Weight, s.DistanceKm, currency)
}
