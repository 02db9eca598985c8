/*
PURPOSE:
  Gemini provider. Asks generateContent for a JSON answer constrained by a
  response schema, through the official Go SDK.

REQUIREMENTS:
  User-specified:
  - Default provider, default model gemini-3-flash-preview.
  - Structured output: responseMimeType application/json plus responseSchema.

  Implementation-discovered:
  - The SDK takes our *http.Client, so the transport timeout and the
    httptrace debug logging from client.go still apply.
  - BaseURL is configurable so tests can point the SDK at httptest.

ARCHITECTURE INTEGRATION:
  - Created by: engine.New
  - Uses: google.golang.org/genai, internal/model, internal/config

ERROR HANDLING:
  - No API key: ErrMissingCredential, no network call.
  - genai.APIError: ErrStatus. Dial/timeout: ErrTransport (classifyDo).
  - Undecodable envelope: ErrMalformedResponse.
  - No candidates, blocked prompt, blank text: ErrEmptyPayload.

IMPLEMENTATION RULES:
  - One call, no retries. The requester owns the fallback.
  - Thought parts are not part of the payload.

USAGE:
  p := engine.NewGemini(cfg, httpClient)
  raw, err := p.Generate(ctx, model.GenerateRequest{Prompt: prompt, Schema: schema})

SELF-HEALING INSTRUCTIONS:
  - If requests 404, check APIVersion and the model name in config.

RELATED FILES:
  - internal/engine/client.go
  - internal/engine/errors.go

MAINTENANCE:
  - Bump the SDK when the API adds schema features we need.
*/

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"google.golang.org/genai"

	"github.com/daryltucker/load-estimator/internal/config"
	"github.com/daryltucker/load-estimator/internal/model"
)

// DefaultGeminiURL is the public Generative Language API endpoint.
const DefaultGeminiURL = "https://generativelanguage.googleapis.com"

const geminiAPIVersion = "v1beta"

// Gemini talks to the Generative Language API through genai.
type Gemini struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewGemini creates a Gemini provider from cfg.
func NewGemini(cfg *config.Config, client *http.Client) *Gemini {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultGeminiURL
	}
	return &Gemini{
		baseURL: strings.TrimRight(base, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

func (g *Gemini) Name() string  { return "gemini" }
func (g *Gemini) Model() string { return g.model }

// sdk builds a genai client. Construction is local; no request is made.
func (g *Gemini) sdk(ctx context.Context) (*genai.Client, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: set GEMINI_API_KEY or LOAD_ESTIMATOR_API_KEY", ErrMissingCredential)
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: g.client,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    g.baseURL,
			APIVersion: geminiAPIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return c, nil
}

// geminiSchema renders s in the OpenAPI subset Gemini accepts.
func geminiSchema(s model.Schema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Properties))
	for _, p := range s.Properties {
		props[p.Name] = &genai.Schema{
			Type:        genai.TypeString,
			Description: p.Description,
		}
	}
	return &genai.Schema{
		Type:             genai.TypeObject,
		Properties:       props,
		Required:         s.Required(),
		PropertyOrdering: s.Required(),
	}
}

// Generate runs generateContent and returns the text of the first candidate.
func (g *Gemini) Generate(ctx context.Context, req model.GenerateRequest) ([]byte, error) {
	client, err := g.sdk(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := client.Models.GenerateContent(
		withTrace(ctx, g.Name(), g.model),
		g.model,
		genai.Text(req.Prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   geminiSchema(req.Schema),
		},
	)
	if err != nil {
		return nil, classifyGemini(err)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("%w: prompt blocked (%s)", ErrEmptyPayload, resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("%w: no candidates returned", ErrEmptyPayload)
	}

	cand := resp.Candidates[0]
	if cand == nil {
		return nil, fmt.Errorf("%w: empty candidate", ErrEmptyPayload)
	}
	var text strings.Builder
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("%w: candidate has no text (finishReason=%s)", ErrEmptyPayload, cand.FinishReason)
	}

	return []byte(text.String()), nil
}

// ListModels returns the model identifiers visible to the API key.
func (g *Gemini) ListModels(ctx context.Context) ([]string, error) {
	client, err := g.sdk(ctx)
	if err != nil {
		return nil, err
	}

	page, err := client.Models.List(ctx, &genai.ListModelsConfig{})
	if err != nil {
		return nil, classifyGemini(err)
	}

	var names []string
	for {
		for _, m := range page.Items {
			names = append(names, strings.TrimPrefix(m.Name, "models/"))
		}
		if page.NextPageToken == "" {
			return names, nil
		}
		page, err = page.Next(ctx)
		if errors.Is(err, genai.ErrPageDone) {
			return names, nil
		}
		if err != nil {
			return nil, classifyGemini(err)
		}
	}
}

// classifyGemini maps SDK errors onto the engine sentinels.
func classifyGemini(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return classifyDo(err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: gemini %s (%d): %s", ErrStatus, apiErr.Status, apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return fmt.Errorf("%w: gemini %s (%d): %s", ErrStatus, apiErrPtr.Status, apiErrPtr.Code, apiErrPtr.Message)
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return classifyDo(err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fmt.Errorf("%w: gemini returned invalid JSON: %w", ErrMalformedResponse, err)
	}

	// Whatever is left came back over a completed HTTP exchange but could
	// not be turned into a response.
	return fmt.Errorf("%w: gemini: %w", ErrMalformedResponse, err)
}
