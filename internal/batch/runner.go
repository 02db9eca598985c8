/*
PURPOSE:
  High-level runner that estimates every shipment in an input file.
  Loops through shipments and records each result.

REQUIREMENTS:
  User-specified:
  - Estimate a list of shipments in one go.
  - Log results to CSV/JSON.

  Implementation-discovered:
  - Input may be CSV (spreadsheet exports) or YAML (hand-written lists).
  - Rows with an empty field are the caller's problem: skip and report.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/estimate, internal/output, internal/config

ERROR HANDLING:
  - Returns error if input cannot be read or outputs cannot be created.
  - Per-shipment failures never stop the run (the estimator falls back).

IMPLEMENTATION RULES:
  - Sequential: one outstanding request at a time.
  - Optional pause between requests (batch.pause).

USAGE:
  summary, err := batch.Run(ctx, cfg, estimator, "shipments.csv")

SELF-HEALING INSTRUCTIONS:
  - None.

RELATED FILES:
  - internal/batch/input.go
  - internal/estimate/estimator.go

MAINTENANCE:
  - Update iteration logic if parallelism is introduced.
*/

package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/daryltucker/load-estimator/internal/config"
	"github.com/daryltucker/load-estimator/internal/estimate"
	"github.com/daryltucker/load-estimator/internal/model"
	"github.com/daryltucker/load-estimator/internal/output"
)

// Output file names inside the output directory.
const (
	CSVFile   = "estimates.csv"
	JSONLFile = "estimates.jsonl"
)

// Resolver resolves one shipment. *estimate.Estimator satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, s model.Shipment) estimate.Result
}

// Summary counts what happened during a run.
type Summary struct {
	Total    int
	Service  int
	Fallback int
	Skipped  int
}

// Run executes the batch described by inputPath.
func Run(ctx context.Context, cfg *config.Config, r Resolver, provider, modelName, inputPath string) (Summary, error) {
	var summary Summary

	shipments, err := ReadShipments(inputPath)
	if err != nil {
		return summary, err
	}

	// Ensure output directory exists
	if err := os.MkdirAll(cfg.Batch.OutputDir, 0o755); err != nil {
		return summary, fmt.Errorf("failed to create output directory %s: %w", cfg.Batch.OutputDir, err)
	}

	csvPath := filepath.Join(cfg.Batch.OutputDir, CSVFile)
	csvWriter, err := output.NewCSVWriter(csvPath)
	if err != nil {
		return summary, fmt.Errorf("failed to init CSV writer at %s: %w", csvPath, err)
	}
	defer csvWriter.Close()

	jsonPath := filepath.Join(cfg.Batch.OutputDir, JSONLFile)
	jsonWriter, err := output.NewJSONWriter(jsonPath)
	if err != nil {
		return summary, fmt.Errorf("failed to init JSON writer at %s: %w", jsonPath, err)
	}
	defer jsonWriter.Close()

	results := output.NewMultiWriter(csvWriter, jsonWriter)

	output.Logger.Info("Starting batch", "input", inputPath, "shipments", len(shipments), "output_dir", cfg.Batch.OutputDir)

	for i, s := range shipments {
		if err := ctx.Err(); err != nil {
			output.Logger.Warn("Batch interrupted", "done", i, "remaining", len(shipments)-i)
			return summary, err
		}

		summary.Total++
		if !s.Complete() {
			output.Logger.Error("Skipping shipment with empty field", "row", i+1, "shipment", s)
			summary.Skipped++
			continue
		}

		if i > 0 && cfg.Batch.Pause > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(cfg.Batch.Pause):
			}
		}

		res := r.Resolve(ctx, s)
		switch res.Outcome {
		case model.OutcomeService:
			summary.Service++
		case model.OutcomeFallback:
			summary.Fallback++
		}

		if err := results.Write(res.Record(provider, modelName)); err != nil {
			output.Logger.Error("Failed to write result", "row", i+1, "error", err)
		}
	}

	output.Logger.Info("Batch complete",
		"total", summary.Total,
		"service", summary.Service,
		"fallback", summary.Fallback,
		"skipped", summary.Skipped,
	)
	return summary, nil
}
