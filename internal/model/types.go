/*
PURPOSE:
  Defines the core data structures used throughout Load Estimator.
  These models represent shipments, estimates, and journal records.

REQUIREMENTS:
  User-specified:
  - An estimate carries truck, cost, fuel, toll and a one-line explanation.
  - All five estimate fields are always populated, fallback included.

  Implementation-discovered:
  - JSON tags must match the camelCase field names the service is asked for.
  - Journal records need the outcome and a distinguished failure cause.

ARCHITECTURE INTEGRATION:
  - Used by: internal/estimate, internal/engine, internal/output, internal/batch, internal/server
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Estimates are values. Never hand out pointers to them.

USAGE:
  est := model.LoadEstimate{...}

SELF-HEALING INSTRUCTIONS:
  - If a field is added to LoadEstimate, update Schema in internal/estimate/prompt.go
    and the CSV writer.

RELATED FILES:
  - internal/model/schema.go
  - internal/output/csv.go
  - internal/output/json.go

MAINTENANCE:
  - Update when the estimate shape changes.
*/

package model

import (
	"time"
)

// Shipment is the free-text description of a load to be priced.
type Shipment struct {
	Material   string `json:"material" yaml:"material"`
	Weight     string `json:"weight" yaml:"weight"`
	DistanceKm string `json:"distanceKm" yaml:"distance_km"`
}

// Complete reports whether every field carries a value.
func (s Shipment) Complete() bool {
	return s.Material != "" && s.Weight != "" && s.DistanceKm != ""
}

// LoadEstimate is the structured result for a shipment query.
type LoadEstimate struct {
	RecommendedTruck string `json:"recommendedTruck"`
	EstimatedCost    string `json:"estimatedCost"`
	FuelEstimate     string `json:"fuelEstimate"`
	TollEstimate     string `json:"tollEstimate"`
	Explanation      string `json:"explanation"`
}

// Outcome tells whether an estimate came from the service or the fallback.
type Outcome string

const (
	OutcomeService  Outcome = "service"
	OutcomeFallback Outcome = "fallback"
)

// Record is a single journal entry describing one estimate resolution.
type Record struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Provider  string        `json:"provider,omitempty"`
	Model     string        `json:"model,omitempty"`
	Shipment  Shipment      `json:"shipment"`
	Estimate  LoadEstimate  `json:"estimate"`
	Outcome   Outcome       `json:"outcome"`
	Cause     string        `json:"cause,omitempty"` // Empty on service outcomes
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}
