/*
PURPOSE:
  Ollama provider for self-hosted models.

REQUIREMENTS:
  Implementation-discovered:
  - Ollama takes a JSON Schema in "format" for structured output.
  - No key is needed locally. When one is configured (Ollama behind an
    authenticating proxy) it is sent as a Bearer token on every request.

ARCHITECTURE INTEGRATION:
  - Created by: engine.New
  - Uses: net/http via the shared client from client.go

ERROR HANDLING:
  - Non-200: ErrStatus. Undecodable body: ErrMalformedResponse.
  - Blank "response": ErrEmptyPayload.

USAGE:
  p := engine.NewOllama(cfg, httpClient)

RELATED FILES:
  - internal/engine/client.go
*/

package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/daryltucker/load-estimator/internal/config"
	"github.com/daryltucker/load-estimator/internal/model"
)

// DefaultOllamaURL is where a local Ollama listens.
const DefaultOllamaURL = "http://localhost:11434"

// Ollama talks to a self-hosted Ollama server. Structured output is requested
// by passing the JSON Schema as the "format" field.
type Ollama struct {
	baseURL string
	model   string
	apiKey  string // Optional, for Ollama behind an authenticating proxy
	client  *http.Client
}

// NewOllama creates an Ollama provider from cfg.
func NewOllama(cfg *config.Config, client *http.Client) *Ollama {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultOllamaURL
	}
	return &Ollama{
		baseURL: strings.TrimRight(base, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

func (o *Ollama) Name() string  { return "ollama" }
func (o *Ollama) Model() string { return o.model }

// Generate runs a non-streaming /api/generate call.
func (o *Ollama) Generate(ctx context.Context, req model.GenerateRequest) ([]byte, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"model":  o.model,
		"prompt": req.Prompt,
		"stream": false,
		"format": req.Schema.JSONSchema(),
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(withTrace(ctx, o.Name(), o.model), http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, classifyDo(err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: Ollama Server Error (%s): %s", ErrStatus, resp.Status, string(bodyBytes))
	}

	var data struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
		Error    string `json:"error"` // API-side error
	}
	if err := json.Unmarshal(bodyBytes, &data); err != nil {
		return nil, fmt.Errorf("%w: Ollama returned invalid JSON: %w (Body: %s)", ErrMalformedResponse, err, string(bodyBytes))
	}

	if data.Error != "" {
		return nil, fmt.Errorf("%w: Ollama API Error: %s", ErrStatus, data.Error)
	}
	if strings.TrimSpace(data.Response) == "" {
		return nil, fmt.Errorf("%w: Ollama returned no response text (done=%t)", ErrEmptyPayload, data.Done)
	}

	return []byte(data.Response), nil
}

// ListModels returns a list of available models from the Ollama host.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, classifyDo(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: bad status: %s", ErrStatus, resp.Status)
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	var names []string
	for _, m := range payload.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
