package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pantrypilot/pantrypilot-api/internal/config"
	"github.com/pantrypilot/pantrypilot-api/internal/logger"
	"go.uber.org/zap"
)

// maxFallbackHTMLChars bounds how much raw page HTML is sent to Claude for
// fallback ingredient extraction.
const maxFallbackHTMLChars = 15000

// AnthropicProvider implements TextProvider using Claude.
type AnthropicProvider struct {
	client  anthropic.Client
	model   anthropic.Model
	prompts *config.Prompts
}

// NewAnthropicProvider creates a new AnthropicProvider with the given API key
// and prompt configuration.
func NewAnthropicProvider(apiKey string, prompts *config.Prompts) *AnthropicProvider {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicProvider{
		client:  client,
		model:   anthropic.ModelClaude3_5Sonnet20241022,
		prompts: prompts,
	}
}

// extractIngredientsTool builds the Claude tool definition for structured
// ingredient extraction from page HTML.
func extractIngredientsTool() anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        "extract_ingredients",
			Description: anthropic.String("Report the recipe ingredients found in the HTML."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type: "object",
				Properties: map[string]interface{}{
					"ingredients": map[string]interface{}{
						"type":        "array",
						"description": "Every ingredient on the page, in page order",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"name":     map[string]interface{}{"type": "string", "description": "Name of the ingredient, without quantity or unit"},
								"quantity": map[string]interface{}{"type": "string", "description": "Quantity as written on the page, empty if absent"},
								"unit":     map[string]interface{}{"type": "string", "description": "Unit as written on the page, empty if absent"},
							},
						},
					},
				},
			},
		},
	}
}

// createVariationTool builds the Claude tool definition for recipe variations.
func createVariationTool() anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        "create_variation",
			Description: anthropic.String("Create a variation of the given recipe."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type: "object",
				Properties: map[string]interface{}{
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Title of the variation",
					},
					"ingredients": map[string]interface{}{
						"type":        "array",
						"description": "Ingredients of the variation",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"name":     map[string]interface{}{"type": "string"},
								"quantity": map[string]interface{}{"type": "string"},
								"unit":     map[string]interface{}{"type": "string"},
							},
						},
					},
					"instructions": map[string]interface{}{
						"type":        "array",
						"description": "Steps to prepare the variation (no numbering)",
						"items":       map[string]interface{}{"type": "string"},
					},
				},
			},
		},
	}
}

// newUserMessage creates a user message param with the given content blocks.
func newUserMessage(blocks ...anthropic.ContentBlockParamUnion) anthropic.MessageParam {
	return anthropic.MessageParam{
		Role:    anthropic.MessageParamRoleUser,
		Content: blocks,
	}
}

// createMessageWithRetry wraps the Claude API call with backoff on
// rate-limit and server errors.
func (p *AnthropicProvider) createMessageWithRetry(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	const maxRetries = 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		resp, err := p.client.Messages.New(ctx, params)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		shouldRetry, waitTime := classifyAnthropicError(err)
		if !shouldRetry {
			return nil, fmt.Errorf("claude API error: %w", err)
		}

		logger.Get().Warn("claude API error, retrying",
			zap.Error(err),
			zap.Int("attempt", i+1),
		)

		backoff := waitTime * time.Duration(i+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("claude API: exhausted %d retries: %w", maxRetries, lastErr)
}

// classifyAnthropicError determines whether to retry and the base wait duration.
func classifyAnthropicError(err error) (shouldRetry bool, waitTime time.Duration) {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return true, 2 * time.Second
		case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return true, 2 * time.Second
		default:
			return false, 0
		}
	}
	return false, 0
}

// toolInput unmarshals the tool-use content block from a Claude response
// into the given destination.
func toolInput(msg *anthropic.Message, dest interface{}) error {
	for _, block := range msg.Content {
		if block.Type == "tool_use" {
			raw, err := json.Marshal(block.Input)
			if err != nil {
				return fmt.Errorf("failed to marshal tool input: %w", err)
			}
			if err := json.Unmarshal(raw, dest); err != nil {
				return fmt.Errorf("failed to parse tool result: %w", err)
			}
			return nil
		}
	}
	return errors.New("no tool_use block found in Claude response")
}

// extractTextContent returns the concatenated text blocks from a Claude response.
func extractTextContent(msg *anthropic.Message) (string, error) {
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", errors.New("no text content in Claude response")
	}
	return text, nil
}

// --- TextProvider implementation ---

// ExtractIngredients pulls a structured ingredient list out of raw page HTML,
// truncated to the provider's context budget.
func (p *AnthropicProvider) ExtractIngredients(ctx context.Context, html string) ([]IngredientResult, error) {
	if len(html) > maxFallbackHTMLChars {
		html = html[:maxFallbackHTMLChars]
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: p.prompts.Extraction.Ingredients.System},
		},
		Messages: []anthropic.MessageParam{
			newUserMessage(anthropic.NewTextBlock(html)),
		},
		Tools: []anthropic.ToolUnionParam{extractIngredientsTool()},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfToolChoiceTool: &anthropic.ToolChoiceToolParam{
				Name: "extract_ingredients",
			},
		},
	}

	resp, err := p.createMessageWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var result struct {
		Ingredients []IngredientResult `json:"ingredients"`
	}
	if err := toolInput(resp, &result); err != nil {
		return nil, err
	}

	return result.Ingredients, nil
}

// ClassifyCuisine returns a one-word cuisine label for a recipe.
func (p *AnthropicProvider) ClassifyCuisine(ctx context.Context, title string, ingredients string) (string, error) {
	userPrompt, err := config.RenderPrompt(p.prompts.Cuisine.Classify.User, map[string]interface{}{
		"Title":       title,
		"Ingredients": ingredients,
	})
	if err != nil {
		return "", fmt.Errorf("render user prompt: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 16,
		System: []anthropic.TextBlockParam{
			{Text: p.prompts.Cuisine.Classify.System},
		},
		Messages: []anthropic.MessageParam{
			newUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}

	resp, err := p.createMessageWithRetry(ctx, params)
	if err != nil {
		return "", err
	}

	text, err := extractTextContent(resp)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

// GenerateVariation creates a pantry-oriented variation of a recipe via
// Claude tool use.
func (p *AnthropicProvider) GenerateVariation(ctx context.Context, req VariationRequest) (*VariationResult, error) {
	userPrompt, err := config.RenderPrompt(p.prompts.Recipe.Variation.User, map[string]interface{}{
		"Title":       req.Title,
		"Ingredients": req.Ingredients,
		"PantryItems": strings.Join(req.PantryItems, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("render user prompt: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: p.prompts.Recipe.Variation.System},
		},
		Messages: []anthropic.MessageParam{
			newUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
		Tools: []anthropic.ToolUnionParam{createVariationTool()},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfToolChoiceTool: &anthropic.ToolChoiceToolParam{
				Name: "create_variation",
			},
		},
	}

	resp, err := p.createMessageWithRetry(ctx, params)
	if err != nil {
		return nil, err
	}

	var result VariationResult
	if err := toolInput(resp, &result); err != nil {
		return nil, err
	}

	if result.Title == "" || len(result.Ingredients) == 0 {
		return nil, errors.New("variation result missing title or ingredients")
	}

	return &result, nil
}
