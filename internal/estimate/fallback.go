package estimate

import "github.com/daryltucker/load-estimator/internal/model"

// FallbackExplanation tells the user the service could not be reached.
const FallbackExplanation = "Unable to connect to AI. Showing rough standard estimates."

// Fallback returns the fixed estimate used whenever the service call fails.
func Fallback() model.LoadEstimate {
	return model.LoadEstimate{
		RecommendedTruck: "Standard 14ft Truck (Fallback)",
		EstimatedCost:    "₹4,000 - ₹5,000",
		FuelEstimate:     "30-35 Litres",
		TollEstimate:     "₹400",
		Explanation:      FallbackExplanation,
	}
}
