/*
PURPOSE:
  Core engine for reaching generative-content services.
  Selects a provider (Gemini, OpenAI, Ollama) and issues one
  schema-constrained generation per call.

REQUIREMENTS:
  User-specified:
  - Ask the service for a response constrained to a fixed schema.
  - The credential comes from process configuration.
  - No retries. One outbound call per estimate.

  Implementation-discovered:
  - Needs http.Client with timeouts; the estimator itself enforces none.
  - Callers need to tell transport failures from API errors and empty answers.

ARCHITECTURE INTEGRATION:
  - Called by: internal/estimate (through the Generator interface), internal/cli
  - Uses: internal/config, internal/model, internal/output

ERROR HANDLING:
  - Every failure wraps one of the sentinels in errors.go.
  - A missing credential is reported at call time, not by New, so the
    estimator can fall back instead of refusing to start.

IMPLEMENTATION RULES:
  - Use net/http for REST providers, go-openai for OpenAI.
  - Enforce timeouts on the transport.

USAGE:
  p, err := engine.New(cfg)
  payload, err := p.Generate(ctx, model.GenerateRequest{...})
  models, err := p.ListModels(ctx)

SELF-HEALING INSTRUCTIONS:
  - If a provider API changes, update its file (gemini.go, openai.go, ollama.go).

RELATED FILES:
  - internal/config/config.go
  - internal/engine/errors.go

MAINTENANCE:
  - Add new providers to New().
*/

package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptrace"
	"strings"

	"github.com/daryltucker/load-estimator/internal/config"
	"github.com/daryltucker/load-estimator/internal/model"
	"github.com/daryltucker/load-estimator/internal/output"
)

// Provider is a generative-content backend.
type Provider interface {
	Name() string
	Model() string
	// Generate returns the raw structured payload for req.
	Generate(ctx context.Context, req model.GenerateRequest) ([]byte, error)
	ListModels(ctx context.Context) ([]string, error)
}

// New creates the provider selected by cfg.Provider.
func New(cfg *config.Config) (Provider, error) {
	client := newHTTPClient(cfg)

	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return NewGemini(cfg, client), nil
	case "openai":
		return NewOpenAI(cfg, client), nil
	case "ollama":
		return NewOllama(cfg, client), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want gemini, openai or ollama)", cfg.Provider)
	}
}

func newHTTPClient(cfg *config.Config) *http.Client {
	// ResponseHeaderTimeout covers the wait for the first byte, which is
	// where generation time is spent for non-streaming calls.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.Timeout

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
}

// withTrace attaches connection-level debug logging to ctx.
func withTrace(ctx context.Context, provider, modelName string) context.Context {
	trace := &httptrace.ClientTrace{
		GotConn: func(connInfo httptrace.GotConnInfo) {
			output.Logger.Debug("Network: Connected", "provider", provider, "remote", connInfo.Conn.RemoteAddr(), "reused", connInfo.Reused)
		},
		WroteRequest: func(w httptrace.WroteRequestInfo) {
			output.Logger.Debug("Network: Request Sent. Waiting for generation...", "provider", provider, "model", modelName)
		},
		GotFirstResponseByte: func() {
			output.Logger.Debug("Network: First Byte Received", "provider", provider, "model", modelName)
		},
	}
	return httptrace.WithClientTrace(ctx, trace)
}

// classifyDo wraps an error returned by http.Client.Do.
func classifyDo(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if strings.Contains(err.Error(), "awaiting headers") {
		return fmt.Errorf("%w: header timeout (generation too slow?): %w", ErrTransport, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
