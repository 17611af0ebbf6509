package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/bryanwahyu/giterra/internal/domain/ai"
	"github.com/bryanwahyu/giterra/internal/infra/ai/prompt"
)

const (
	DefaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 2048
)

type Config struct {
	APIKey    string
	BaseURL   string // optional, OpenAI-compatible endpoints
	Model     string
	MaxTokens int
	Timeout   time.Duration // per call, 0 means no extra deadline
}

// Client implements ai.Provider on top of chat completions.
type Client struct {
	*openai.Client
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

var _ ai.Provider = (*Client)(nil)

func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Client{Client: openai.NewClientWithConfig(oc), Model: model, MaxTokens: maxTokens, Timeout: cfg.Timeout}
}

func (c *Client) Source() ai.Source { return ai.SourceLLM }

// AnalyzeRepo asks for the structured repository narrative in JSON mode.
func (c *Client) AnalyzeRepo(ctx context.Context, in ai.RepoInput) (ai.RepoNarrative, error) {
	content, err := c.complete(ctx, prompt.RepoSystemPrompt(), prompt.RepoUserPrompt(in), true)
	if err != nil {
		return ai.RepoNarrative{}, err
	}
	var n ai.RepoNarrative
	if err := json.Unmarshal([]byte(stripFences(content)), &n); err != nil {
		return ai.RepoNarrative{}, fmt.Errorf("decode narrative of %s: %w", in.RepoName, err)
	}
	n.RepoName = in.RepoName
	return n, nil
}

// Synthesize writes the overall report as plain text.
func (c *Client) Synthesize(ctx context.Context, username string, narratives []ai.RepoNarrative) (string, error) {
	return c.complete(ctx, prompt.SynthesisSystemPrompt(), prompt.SynthesisUserPrompt(username, narratives), false)
}

func (c *Client) complete(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.Model) {
		req.MaxCompletionTokens = c.MaxTokens
	} else {
		req.MaxTokens = c.MaxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuotaError(err) {
			return "", fmt.Errorf("%w: %v", ai.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}

// stripFences removes a ```json fence some compatible endpoints add even in JSON mode.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
