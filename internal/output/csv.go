/*
PURPOSE:
  Writes estimate records to a CSV file.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - Output to CSV for spreadsheet review of batch runs.

  Implementation-discovered:
  - The file is appended to; the header is written only to an empty file.

ARCHITECTURE INTEGRATION:
  - Called by: internal/estimate (as a Recorder), internal/batch
  - Consumes: internal/model.Record

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (critical for crash resilience).
  - Mutex guards writes; the server resolves estimates concurrently.

USAGE:
  w, err := output.NewCSVWriter("estimates.csv")
  w.Write(record)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - If CSV format changes, update Header and record conversion.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update Write() mapping when Record struct changes.
*/

package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/daryltucker/load-estimator/internal/model"
)

// Header is the CSV column layout.
var Header = []string{
	"id", "timestamp", "provider", "model",
	"material", "weight", "distance_km",
	"outcome", "cause", "duration_s",
	"recommended_truck", "estimated_cost", "fuel_estimate", "toll_estimate", "explanation",
	"error",
}

// CSVWriter handles writing records to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter opens path for appending, writing the header if the file is new.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	w := csv.NewWriter(f)

	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &CSVWriter{
		file:   f,
		writer: w,
	}, nil
}

// Write writes a single record to the CSV file.
// It is thread-safe.
func (cw *CSVWriter) Write(r model.Record) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	record := []string{
		r.ID,
		r.Timestamp.Format(time.RFC3339),
		r.Provider,
		r.Model,
		r.Shipment.Material,
		r.Shipment.Weight,
		r.Shipment.DistanceKm,
		string(r.Outcome),
		r.Cause,
		fmt.Sprintf("%.4f", r.Duration.Seconds()),
		r.Estimate.RecommendedTruck,
		r.Estimate.EstimatedCost,
		r.Estimate.FuelEstimate,
		r.Estimate.TollEstimate,
		r.Estimate.Explanation,
		r.Error,
	}

	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.file.Close()
}
