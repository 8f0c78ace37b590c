// Package megallm wraps the MegaLLM chat-completions API used to generate,
// improve and fix plugin code. The provider is treated as a black box: any
// failure surfaces as domain.ErrUpstream and callers must not have mutated
// state before invoking it.
package megallm

import (
	"bytes"
	"context"
	"fmt"

	"github.com/kodella-ai/kodella/internal/adapter"
	"github.com/kodella-ai/kodella/internal/domain"
)

const (
	// System prompts sent with each operation kind
	generateSystemPrompt = "You are an expert plugin developer. Generate high-quality, well-documented plugin code based on user requirements. Return only the code with comments."
	improveSystemPrompt  = "You are an expert code reviewer and improver. Analyze the code and apply the requested improvements. Return only the improved code."
	fixSystemPrompt      = "You are an expert debugger. Analyze the code, identify issues, and provide a fixed version. Return only the corrected code."

	defaultTemperature = 0.7
	fixTemperature     = 0.5
	maxCompletionSize  = 2000
)

// Message is a single chat message in a completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the chat-completions request payload
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// CompletionResponse is the chat-completions response payload
type CompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Result carries the generated code and the request/response text lengths
// used for cost estimation
type Result struct {
	Code         string
	InputLength  int
	OutputLength int
}

// Client defines the interface for plugin code generation
type Client interface {
	// Generate produces plugin code from a natural-language prompt
	Generate(ctx context.Context, prompt string, model string) (*Result, error)
	// Improve rewrites existing code according to free-text instructions
	Improve(ctx context.Context, code string, instructions string, model string) (*Result, error)
	// Fix rewrites existing code to resolve the described error
	Fix(ctx context.Context, code string, errorDescription string, model string) (*Result, error)
}

// MegaLLMClient implements Client against the MegaLLM HTTP API
type MegaLLMClient struct {
	httpClient adapter.HTTPClient
	json       adapter.JSON
	apiURL     string
	apiKey     string
}

// NewClient creates a new MegaLLM client
func NewClient(httpClient adapter.HTTPClient, json adapter.JSON, apiURL string, apiKey string) Client {
	return &MegaLLMClient{
		httpClient: httpClient,
		json:       json,
		apiURL:     apiURL,
		apiKey:     apiKey,
	}
}

// Generate produces plugin code from a natural-language prompt
func (c *MegaLLMClient) Generate(ctx context.Context, prompt string, model string) (*Result, error) {
	return c.complete(ctx, generateSystemPrompt, prompt, model, defaultTemperature)
}

// Improve rewrites existing code according to free-text instructions.
// The full prompt (instructions plus code) counts as request input for costing.
func (c *MegaLLMClient) Improve(ctx context.Context, code string, instructions string, model string) (*Result, error) {
	prompt := ImprovePrompt(code, instructions)
	return c.complete(ctx, improveSystemPrompt, prompt, model, defaultTemperature)
}

// Fix rewrites existing code to resolve the described error.
// The full prompt (error description plus code) counts as request input for costing.
func (c *MegaLLMClient) Fix(ctx context.Context, code string, errorDescription string, model string) (*Result, error) {
	prompt := FixPrompt(code, errorDescription)
	return c.complete(ctx, fixSystemPrompt, prompt, model, fixTemperature)
}

// ImprovePrompt builds the user prompt for an improve request
func ImprovePrompt(code string, instructions string) string {
	return fmt.Sprintf("Improve the following plugin code based on these instructions:\n\nInstructions: %s\n\nCode:\n%s", instructions, code)
}

// FixPrompt builds the user prompt for a fix request
func FixPrompt(code string, errorDescription string) string {
	return fmt.Sprintf("Fix the following plugin code. Error/Issue: %s\n\nCode:\n%s", errorDescription, code)
}

// complete performs one chat-completions call and measures the text lengths
func (c *MegaLLMClient) complete(ctx context.Context, systemPrompt string, userPrompt string, model string, temperature float64) (*Result, error) {
	if model == "" {
		model = domain.DEFAULT_MODEL
	}

	request := CompletionRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
		MaxTokens:   maxCompletionSize,
	}

	requestBody, err := c.json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}
	responseBody, err := c.httpClient.Post(ctx, c.apiURL+"/chat/completions", "application/json", headers, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	var response CompletionResponse
	if err := c.json.Unmarshal(responseBody, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to decode completion response: %v", domain.ErrUpstream, err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("%w: completion response has no choices", domain.ErrUpstream)
	}

	code := response.Choices[0].Message.Content
	return &Result{
		Code:         code,
		InputLength:  len(userPrompt),
		OutputLength: len(code),
	}, nil
}
