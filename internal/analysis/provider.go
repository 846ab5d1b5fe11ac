package analysis

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/revwatch/internal/model"
	"github.com/sells-group/revwatch/pkg/anthropic"
	"github.com/sells-group/revwatch/pkg/openrouter"
)

// providerTemperature keeps completions near-deterministic; the report shape
// leaves no room for creativity.
const providerTemperature = 0.1

// providerMaxTokens bounds the completion length.
const providerMaxTokens = 2000

const systemText = "You are a revenue operations analyst. Respond with valid JSON only."

// OpenRouterProvider delegates deal analysis to an OpenRouter-hosted model.
type OpenRouterProvider struct {
	client openrouter.Client
}

// NewOpenRouterProvider creates a provider backed by an OpenRouter client.
func NewOpenRouterProvider(client openrouter.Client) *OpenRouterProvider {
	return &OpenRouterProvider{client: client}
}

// Name implements Provider.
func (p *OpenRouterProvider) Name() string { return "openrouter" }

// AnalyzeDeals implements Provider.
func (p *OpenRouterProvider) AnalyzeDeals(ctx context.Context, deals []model.Deal) (*model.Report, error) {
	prompt, err := buildPrompt(deals)
	if err != nil {
		return nil, err
	}

	temp := providerTemperature
	maxTokens := providerMaxTokens
	resp, err := p.client.ChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Messages: []openrouter.Message{
			{Role: "system", Content: systemText},
			{Role: "user", Content: prompt},
		},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, err
	}

	content := resp.Content()
	if content == "" {
		return nil, eris.New("analysis: openrouter returned no choices")
	}
	return parseReport(content)
}

// AnthropicProvider delegates deal analysis to the Anthropic Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates a provider backed by an Anthropic client.
func NewAnthropicProvider(client anthropic.Client, model string) *AnthropicProvider {
	return &AnthropicProvider{client: client, model: model}
}

// Name implements Provider.
func (p *AnthropicProvider) Name() string { return "anthropic" }

// AnalyzeDeals implements Provider.
func (p *AnthropicProvider) AnalyzeDeals(ctx context.Context, deals []model.Deal) (*model.Report, error) {
	prompt, err := buildPrompt(deals)
	if err != nil {
		return nil, err
	}

	temp := providerTemperature
	resp, err := p.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   providerMaxTokens,
		System:      systemText,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(p.model, "analysis")

	text := resp.Text()
	if text == "" {
		return nil, eris.New("analysis: anthropic returned no text content")
	}
	return parseReport(text)
}
