package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
	"golang.org/x/time/rate"

	"linesheet/internal/config"
)

const (
	extractionTimeout     = 30 * time.Second
	extractionTemperature = 0.1
)

// Field is one structured fact pulled from a message on the ingestion path.
// Category is a free-text label chosen by the model, not a closed enum.
type Field struct {
	Value    string `json:"value"`
	Category string `json:"type"`
	Context  string `json:"context"`
}

// DetailedField is the interactive-variant result, carrying an identifier and
// a model-reported confidence score.
type DetailedField struct {
	ID         string  `json:"id"`
	Value      string  `json:"value"`
	Category   string  `json:"type"`
	Context    string  `json:"context"`
	Confidence float64 `json:"confidence"`
}

// ChatCompleter is the slice of the OpenAI-style client the extractor uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client extracts structured numeric fields from free-form chat text via a
// hosted model speaking the OpenAI chat API (Gemini's compatibility endpoint
// by default).
type Client struct {
	chat    ChatCompleter
	model   string
	limiter *rate.Limiter
}

// New creates a Client from Gemini configuration. Model calls are rate
// limited so a webhook batch cannot burst past the API quota.
func New(cfg config.GeminiConfig) *Client {
	cc := openai.DefaultConfig(cfg.APIKey)
	cc.BaseURL = cfg.BaseURL
	return NewWithChatter(openai.NewClientWithConfig(cc), cfg.Model)
}

// NewWithChatter creates a Client over an explicit chat implementation.
func NewWithChatter(chat ChatCompleter, model string) *Client {
	return &Client{
		chat:    chat,
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(3), 5),
	}
}

// Extract pulls structured fields out of text on the ingestion path. It never
// fails: any transport, service, or decoding problem degrades to an empty
// result so the caller can still log the raw message.
func (c *Client) Extract(ctx context.Context, text string) []Field {
	if text == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, extractionTimeout)
	defer cancel()

	raw, err := c.complete(ctx, ingestPrompt(text), "extracted_fields", ingestSchema())
	if err != nil {
		slog.Warn("extraction call failed", "error", err)
		return nil
	}

	var resp struct {
		Items []Field `json:"items"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		slog.Warn("malformed extraction response", "error", err, "response", raw)
		return nil
	}
	for _, item := range resp.Items {
		if item.Value == "" || item.Category == "" {
			slog.Warn("extraction response missing required fields", "response", raw)
			return nil
		}
	}
	return resp.Items
}

// ExtractDetailed is the interactive variant used by the manual test mode.
// Unlike Extract it surfaces failures, because a human is present to retry.
func (c *Client) ExtractDetailed(ctx context.Context, text string) ([]DetailedField, error) {
	raw, err := c.complete(ctx, detailedPrompt(text), "detailed_fields", detailedSchema())
	if err != nil {
		return nil, err
	}

	var resp struct {
		Items []DetailedField `json:"items"`
	}
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("malformed extraction response: %w", err)
	}
	for i := range resp.Items {
		item := &resp.Items[i]
		if item.Value == "" || item.Category == "" {
			return nil, fmt.Errorf("extraction response missing required fields")
		}
		if item.Confidence < 0 || item.Confidence > 1 {
			return nil, fmt.Errorf("extraction confidence %v out of range", item.Confidence)
		}
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
	}
	return resp.Items, nil
}

func (c *Client) complete(ctx context.Context, prompt, schemaName string, schema jsonschema.Definition) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.chat.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: extractionTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   schemaName,
				Schema: &schema,
				Strict: true,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
