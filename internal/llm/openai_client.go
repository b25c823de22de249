// ABOUTME: OpenAI client for topic extraction and topic research
// ABOUTME: Uses JSON-mode chat completions with gpt-4o-mini by default (configurable)
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/chunkstream/internal/config"
	"github.com/harper/chunkstream/internal/models"
	"github.com/harper/chunkstream/internal/util"
)

// DefaultChatModel is the default model for chat completions
const DefaultChatModel = "gpt-4o-mini"

// ErrNoAPIKey is returned when the client is built without credentials
var ErrNoAPIKey = errors.New("OpenAI API key is required")

// chatCompleter is the subset of *openai.Client the enrichment calls need
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:     apiKey,
		ChatModel:  DefaultChatModel,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// ConfigFrom maps the loaded application configuration onto client settings
func ConfigFrom(cfg *config.Config) *ClientConfig {
	cc := DefaultConfig(cfg.OpenAIKey)
	if cfg.ChatModel != "" {
		cc.ChatModel = cfg.ChatModel
	}
	cc.BaseURL = cfg.OpenAIBaseURL
	cc.Timeout = cfg.Timeout
	cc.MaxRetries = cfg.MaxRetries
	cc.RetryDelay = cfg.RetryDelay
	return cc
}

// OpenAIClient extracts topics and fetches research through chat completions.
// Retries happen inside each call; callers see one result per call.
type OpenAIClient struct {
	client     chatCompleter
	chatModel  string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(cfg *ClientConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}

	return newWithCompleter(openai.NewClientWithConfig(oc), cfg), nil
}

func newWithCompleter(c chatCompleter, cfg *ClientConfig) *OpenAIClient {
	model := cfg.ChatModel
	if model == "" {
		model = DefaultChatModel
	}
	return &OpenAIClient{
		client:     c,
		chatModel:  model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

const topicsPrompt = `You listen to a live conversation and pick out what is worth looking up.
Given a transcript excerpt, extract:
1. topics: subjects being discussed (short noun phrases)
2. questions: questions asked or implied that could be answered with research
3. terms: jargon, names or acronyms a listener may not know

Return ONLY a JSON object with the fields "topics", "questions" and "terms",
each an array of strings. Use empty arrays when nothing fits.`

// ExtractTopics asks the model for topics, questions and terms in text
func (c *OpenAIClient) ExtractTopics(ctx context.Context, text string) (models.TopicResult, error) {
	var result models.TopicResult

	userPrompt := fmt.Sprintf("Transcript excerpt:\n\n%s", text)
	if err := c.completeJSON(ctx, topicsPrompt, userPrompt, 0.2, &result); err != nil {
		return models.TopicResult{}, fmt.Errorf("failed to extract topics: %w", err)
	}
	return result, nil
}

const researchPrompt = `You are a research assistant following a live conversation.
For each requested topic write a concise, factual summary (two or three
sentences) that helps a listener follow the discussion. Use the live
transcript for context and do not repeat what earlier summaries already said.

Return ONLY a JSON object of the form
{"summaries": [{"topic": "...", "summary": "..."}]}.`

type researchResponse struct {
	Summaries []struct {
		Topic   string `json:"topic"`
		Summary string `json:"summary"`
	} `json:"summaries"`
}

// FetchResearch asks the model for a summary per topic. liveContext and prior
// results are included in the prompt.
func (c *OpenAIClient) FetchResearch(ctx context.Context, topics []string, liveContext string, prior []models.ResearchResult) ([]models.ResearchResult, error) {
	if len(topics) == 0 {
		return nil, nil
	}

	var resp researchResponse
	if err := c.completeJSON(ctx, researchPrompt, buildResearchPrompt(topics, liveContext, prior), 0.3, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch research: %w", err)
	}

	now := time.Now()
	results := make([]models.ResearchResult, 0, len(resp.Summaries))
	for _, s := range resp.Summaries {
		if strings.TrimSpace(s.Summary) == "" {
			continue
		}
		results = append(results, models.ResearchResult{
			Topic:     s.Topic,
			Summary:   s.Summary,
			Timestamp: now,
		})
	}
	return results, nil
}

func buildResearchPrompt(topics []string, liveContext string, prior []models.ResearchResult) string {
	var b strings.Builder

	b.WriteString("Topics:\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "- %s\n", t)
	}

	if liveContext != "" {
		fmt.Fprintf(&b, "\nLive transcript:\n%s\n", liveContext)
	}

	if len(prior) > 0 {
		b.WriteString("\nEarlier summaries:\n")
		for _, r := range prior {
			fmt.Fprintf(&b, "- %s: %s\n", r.Topic, r.Summary)
		}
	}

	return b.String()
}

// completeJSON runs a JSON-mode chat completion with retries and decodes the
// reply into out
func (c *OpenAIClient) completeJSON(ctx context.Context, system, user string, temperature float32, out any) error {
	return util.Do(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		callCtx, cancel := c.withTimeout(ctx)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: system,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: user,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Temperature: temperature,
		})
		if err != nil {
			return classify(err)
		}

		if len(resp.Choices) == 0 {
			return errors.New("no completion choices returned")
		}

		content := resp.Choices[0].Message.Content
		if err := json.Unmarshal([]byte(content), out); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
		return nil
	})
}

func (c *OpenAIClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// classify marks client errors that a retry cannot fix as permanent
func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return fmt.Errorf("%w: %w", util.ErrPermanent, err)
		}
	}
	return err
}
