/*
PURPOSE:
  Turns a shipment (material, weight, distance) into a LoadEstimate by asking
  a generative-content service for a schema-constrained answer.

REQUIREMENTS:
  User-specified:
  - Never fail the caller. Any failure yields the fixed fallback estimate.
  - Inputs are not validated here; the caller checks for empty fields.
  - No retries, no caching, no rate limiting. One call per estimate.

  Implementation-discovered:
  - Operators need to know why a fallback happened, users must not.
  - The server calls this concurrently, so the Estimator holds no mutable state.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli, internal/batch, internal/server
  - Uses: internal/model, internal/output (logger), a Generator (internal/engine)

ERROR HANDLING:
  - Errors are classified (cause.go), logged at Warn and written to the
    Recorder. They are never returned.
  - Provider panics are recovered and treated as failures.

IMPLEMENTATION RULES:
  - Parse strictly (parse.go). Return service fields unchanged.
  - Fallback values are fixed text (fallback.go).

USAGE:
  est := estimate.New(provider, estimate.WithRecorder(journal))
  result := est.Estimate(ctx, "Steel Pipes", "5 tons", "350")

SELF-HEALING INSTRUCTIONS:
  - If providers start wrapping JSON in prose, fix the provider, not Parse.

RELATED FILES:
  - internal/estimate/parse.go
  - internal/estimate/fallback.go
  - internal/engine/client.go

MAINTENANCE:
  - Keep Schema, Parse and model.LoadEstimate in step.
*/

package estimate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/daryltucker/load-estimator/internal/model"
	"github.com/daryltucker/load-estimator/internal/output"
)

// Generator produces a raw structured payload for a prompt and schema.
type Generator interface {
	Generate(ctx context.Context, req model.GenerateRequest) ([]byte, error)
}

// Recorder receives one record per resolution.
type Recorder interface {
	Write(r model.Record) error
}

// describer is implemented by engine providers; used to label records.
type describer interface {
	Name() string
	Model() string
}

// Result is the detailed outcome of one resolution.
type Result struct {
	ID       string
	Shipment model.Shipment
	Estimate model.LoadEstimate
	Outcome  model.Outcome
	Cause    string // Empty when Outcome is OutcomeService
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Record converts r into a journal entry.
func (r Result) Record(provider, modelName string) model.Record {
	rec := model.Record{
		ID:        r.ID,
		Timestamp: r.Started,
		Provider:  provider,
		Model:     modelName,
		Shipment:  r.Shipment,
		Estimate:  r.Estimate,
		Outcome:   r.Outcome,
		Cause:     r.Cause,
		Duration:  r.Duration,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}

// Estimator is the estimate requester. It is safe for concurrent use.
type Estimator struct {
	gen      Generator
	region   string
	currency string
	recorder Recorder
	logger   func() *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithRegion sets the target region named in the prompt (default "India").
func WithRegion(region string) Option {
	return func(e *Estimator) { e.region = region }
}

// WithCurrency sets the currency named in the prompt (default "INR").
func WithCurrency(currency string) Option {
	return func(e *Estimator) { e.currency = currency }
}

// WithRecorder sends every resolution to r.
func WithRecorder(r Recorder) Option {
	return func(e *Estimator) { e.recorder = r }
}

// WithLogger overrides the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Estimator) { e.logger = func() *slog.Logger { return l } }
}

// New creates an Estimator backed by gen.
func New(gen Generator, opts ...Option) *Estimator {
	e := &Estimator{
		gen:      gen,
		region:   "India",
		currency: "INR",
		logger:   func() *slog.Logger { return output.Logger },
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate returns the estimate for a shipment. It always returns a fully
// populated LoadEstimate: the service's answer, or Fallback().
func (e *Estimator) Estimate(ctx context.Context, material, weight, distanceKm string) model.LoadEstimate {
	return e.Resolve(ctx, model.Shipment{
		Material:   material,
		Weight:     weight,
		DistanceKm: distanceKm,
	}).Estimate
}

// Resolve is Estimate with the outcome details attached.
func (e *Estimator) Resolve(ctx context.Context, s model.Shipment) Result {
	res := Result{
		ID:       e.newID(),
		Shipment: s,
		Started:  e.now(),
	}

	est, err := e.request(ctx, s)
	res.Duration = e.now().Sub(res.Started)

	if err != nil {
		res.Estimate = Fallback()
		res.Outcome = model.OutcomeFallback
		res.Err = err
		res.Cause = Cause(err)
		e.logger().Warn("Estimate fell back to defaults",
			"id", res.ID,
			"cause", res.Cause,
			"error", err,
			"duration", res.Duration,
		)
	} else {
		res.Estimate = est
		res.Outcome = model.OutcomeService
		e.logger().Info("Estimate resolved",
			"id", res.ID,
			"truck", est.RecommendedTruck,
			"duration", res.Duration,
		)
	}

	e.record(res)
	return res
}

func (e *Estimator) request(ctx context.Context, s model.Shipment) (est model.LoadEstimate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()

	payload, err := e.gen.Generate(ctx, model.GenerateRequest{
		Prompt: BuildPrompt(s, e.region, e.currency),
		Schema: Schema,
	})
	if err != nil {
		return model.LoadEstimate{}, err
	}
	return Parse(payload)
}

func (e *Estimator) record(res Result) {
	if e.recorder == nil {
		return
	}

	var provider, modelName string
	if d, ok := e.gen.(describer); ok {
		provider, modelName = d.Name(), d.Model()
	}

	if err := e.recorder.Write(res.Record(provider, modelName)); err != nil {
		e.logger().Error("Failed to write estimate record", "id", res.ID, "error", err)
	}
}
