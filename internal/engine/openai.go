/*
PURPOSE:
  OpenAI provider. Chat completions with a strict json_schema response
  format. BaseURL may point at any OpenAI-compatible server.

ARCHITECTURE INTEGRATION:
  - Created by: engine.New
  - Uses: github.com/sashabaranov/go-openai (+ jsonschema)

ERROR HANDLING:
  - No API key: ErrMissingCredential, no network call.
  - APIError / RequestError: ErrStatus. Everything else goes through classifyDo.
  - Refusals and empty messages: ErrEmptyPayload.

IMPLEMENTATION RULES:
  - One call, no retries.

RELATED FILES:
  - internal/engine/client.go
  - internal/engine/errors.go
*/

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/daryltucker/load-estimator/internal/config"
	"github.com/daryltucker/load-estimator/internal/model"
)

// OpenAI uses the chat completions API with a strict JSON schema response format.
// BaseURL may point at any OpenAI-compatible server.
type OpenAI struct {
	model  string
	apiKey string
	client *openai.Client
}

// NewOpenAI creates an OpenAI provider from cfg.
func NewOpenAI(cfg *config.Config, httpClient *http.Client) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = httpClient

	return &OpenAI{
		model:  cfg.Model,
		apiKey: cfg.APIKey,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

func (o *OpenAI) Name() string  { return "openai" }
func (o *OpenAI) Model() string { return o.model }

// openAISchema renders s as a go-openai jsonschema definition.
func openAISchema(s model.Schema) *jsonschema.Definition {
	props := make(map[string]jsonschema.Definition, len(s.Properties))
	for _, p := range s.Properties {
		props[p.Name] = jsonschema.Definition{
			Type:        jsonschema.String,
			Description: p.Description,
		}
	}
	return &jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           props,
		Required:             s.Required(),
		AdditionalProperties: false,
	}
}

// Generate sends req as a single user message and returns the message content.
func (o *OpenAI) Generate(ctx context.Context, req model.GenerateRequest) ([]byte, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY or LOAD_ESTIMATOR_API_KEY", ErrMissingCredential)
	}

	name := req.Schema.Name
	if name == "" {
		name = "response"
	}

	resp, err := o.client.CreateChatCompletion(withTrace(ctx, o.Name(), o.model), openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   name,
				Schema: openAISchema(req.Schema),
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, classifyOpenAI(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrEmptyPayload)
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, fmt.Errorf("%w: model refused: %s", ErrEmptyPayload, choice.Message.Refusal)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return nil, fmt.Errorf("%w: empty message (finish_reason=%s)", ErrEmptyPayload, choice.FinishReason)
	}

	return []byte(choice.Message.Content), nil
}

// ListModels returns model IDs from the models endpoint.
func (o *OpenAI) ListModels(ctx context.Context) ([]string, error) {
	if o.apiKey == "" {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY or LOAD_ESTIMATOR_API_KEY", ErrMissingCredential)
	}

	list, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, classifyOpenAI(err)
	}

	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	return names, nil
}

func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: openai (%d): %w", ErrStatus, apiErr.HTTPStatusCode, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: openai (%d): %w", ErrStatus, reqErr.HTTPStatusCode, err)
	}
	var synErr *json.SyntaxError
	if errors.As(err, &synErr) {
		return fmt.Errorf("%w: openai: %w", ErrMalformedResponse, err)
	}
	return classifyDo(err)
}
