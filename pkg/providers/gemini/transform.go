package gemini

import (
	"fmt"
	"strings"
	"time"

	"mercator-hq/dialoglens/pkg/providers"
)

// Gemini API request/response types

// GenerateContentRequest represents a generateContent request.
type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Content is one turn in Gemini format.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a piece of turn content. Only text parts are used.
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig holds optional sampling parameters.
type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

// GenerateContentResponse represents a generateContent response.
type GenerateContentResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  UsageMetadata   `json:"usageMetadata"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
	ResponseID     string          `json:"responseId,omitempty"`
}

// Candidate is one generated answer.
type Candidate struct {
	Content      *Content `json:"content,omitempty"`
	FinishReason string   `json:"finishReason,omitempty"`
	Index        int      `json:"index"`
}

// PromptFeedback explains why a prompt produced no candidates.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// UsageMetadata represents token usage in Gemini format.
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Gemini role names.
const (
	roleUser  = "user"
	roleModel = "model"
)

// MapRole maps a provider-agnostic role to a Gemini role.
//
// The mapping is total over the roles the providers package defines:
// system is demoted to user because generateContent has no system turn in
// contents, user stays user, and assistant becomes model. Any other role
// is rejected.
func MapRole(role string) (string, error) {
	switch role {
	case providers.RoleSystem, providers.RoleUser:
		return roleUser, nil
	case providers.RoleAssistant:
		return roleModel, nil
	default:
		return "", &providers.ValidationError{
			Field:   "messages.role",
			Message: fmt.Sprintf("role %q has no Gemini equivalent", role),
		}
	}
}

// transformRequest converts a provider-agnostic request to Gemini format.
func transformRequest(req *providers.CompletionRequest) (*GenerateContentRequest, error) {
	contents := make([]Content, 0, len(req.Messages))
	for i, msg := range req.Messages {
		role, err := MapRole(msg.Role)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		contents = append(contents, Content{
			Role:  role,
			Parts: []Part{{Text: msg.Content}},
		})
	}

	out := &GenerateContentRequest{Contents: contents}

	if req.Temperature > 0 || req.MaxTokens > 0 {
		cfg := &GenerationConfig{MaxOutputTokens: req.MaxTokens}
		if req.Temperature > 0 {
			t := req.Temperature
			cfg.Temperature = &t
		}
		out.GenerationConfig = cfg
	}

	return out, nil
}

// transformResponse converts a Gemini response to provider-agnostic format.
// A response without candidates, or whose first candidate has no content
// parts, is an error. Text parts of the first candidate are concatenated.
func transformResponse(resp *GenerateContentResponse, model string) (*providers.CompletionResponse, error) {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("no candidates returned (prompt blocked: %s)", resp.PromptFeedback.BlockReason)
		}
		return nil, fmt.Errorf("no candidates returned")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("candidate has no content parts (finish reason %q)", candidate.FinishReason)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}

	if resp.ModelVersion != "" {
		model = resp.ModelVersion
	}

	return &providers.CompletionResponse{
		ID:           resp.ResponseID,
		Model:        model,
		Content:      sb.String(),
		FinishReason: mapFinishReason(candidate.FinishReason),
		Usage: providers.TokenUsage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		},
		Created: time.Now().Unix(),
	}, nil
}

// mapFinishReason maps Gemini finish reasons to the normalized set.
func mapFinishReason(reason string) string {
	switch reason {
	case "STOP", "":
		return providers.FinishReasonStop
	case "MAX_TOKENS":
		return providers.FinishReasonLength
	case "SAFETY", "RECITATION", "BLOCKLIST", "PROHIBITED_CONTENT", "SPII":
		return providers.FinishReasonContentFilter
	default:
		return providers.FinishReasonOther
	}
}
