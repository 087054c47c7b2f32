package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"mercator-hq/dialoglens/pkg/providers"
)

// DefaultBaseURL is the public Generative Language API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// apiKeyHeader carries the API key so it never appears in a URL.
const apiKeyHeader = "x-goog-api-key"

// Provider is the Gemini provider adapter.
// It implements the providers.Provider interface for the generateContent API.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new Gemini provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		config.Name = "gemini"
	}
	if config.Type == "" {
		config.Type = "gemini"
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for Gemini",
		}
	}

	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 10
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 2
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}
	p.SetHealthCheck(p.listModels)

	slog.Debug("Gemini provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// SendCompletion sends a completion request to Gemini.
func (p *Provider) SendCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	geminiReq, err := transformRequest(req)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		p.GetConfig().BaseURL, url.PathEscape(req.Model))

	var geminiResp GenerateContentResponse
	if err := p.DoJSONRequest(ctx, "POST", endpoint, geminiReq, &geminiResp, p.headers()); err != nil {
		var perr *providers.ProviderError
		if errors.As(err, &perr) && perr.StatusCode == http.StatusNotFound {
			return nil, &providers.ModelNotFoundError{Provider: p.GetName(), Model: req.Model}
		}
		return nil, err
	}

	resp, err := transformResponse(&geminiResp, req.Model)
	if err != nil {
		return nil, &providers.ParseError{
			Provider: p.GetName(),
			Cause:    err,
		}
	}

	slog.Debug("completion request succeeded",
		"provider", p.GetName(),
		"model", resp.Model,
		"finish_reason", resp.FinishReason,
		"tokens", resp.Usage.TotalTokens,
	)

	return resp, nil
}

// listModels is the health probe: a one-item model listing validates both
// reachability and the API key without generating content.
func (p *Provider) listModels(ctx context.Context) error {
	endpoint := p.GetConfig().BaseURL + "/v1beta/models?pageSize=1"

	resp, err := p.DoRequest(ctx, "GET", endpoint, nil, p.headers())
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (p *Provider) headers() map[string]string {
	return map[string]string{
		apiKeyHeader:   p.GetConfig().APIKey,
		"Content-Type": "application/json",
	}
}

// validateRequest validates the completion request.
func validateRequest(req *providers.CompletionRequest) error {
	if req == nil {
		return &providers.ValidationError{
			Field:   "request",
			Message: "request cannot be nil",
		}
	}

	if req.Model == "" {
		return &providers.ValidationError{
			Field:   "model",
			Message: "model is required",
		}
	}

	if len(req.Messages) == 0 {
		return &providers.ValidationError{
			Field:   "messages",
			Message: "at least one message is required",
		}
	}

	return nil
}
