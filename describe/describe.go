// Package describe asks a hosted vision-capable chat model to describe an image.
package describe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel     = openai.GPT4o
	DefaultPrompt    = "이 이미지에 대해서 설명해줘."
	DefaultMaxTokens = 1024
)

var (
	// ErrEmptyURL is returned before any request is made when the image URL is blank.
	ErrEmptyURL = errors.New("describe: image url is empty")
	// ErrNoChoices is returned when the completion response carries no choices.
	ErrNoChoices = errors.New("describe: completion returned no choices")
	// ErrEmptyDescription is returned when the first choice has no text.
	ErrEmptyDescription = errors.New("describe: completion returned an empty description")
)

// Client sends one chat-completion request per image. It is safe for
// concurrent use; the underlying API client is created once.
type Client struct {
	api       *openai.Client
	model     string
	prompt    string
	maxTokens int
}

// Option configures a Client.
type Option func(*settings)

type settings struct {
	model      string
	prompt     string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
}

// WithModel overrides the model identifier (default gpt-4o).
func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithPrompt overrides the fixed instruction sent alongside the image.
func WithPrompt(prompt string) Option {
	return func(s *settings) {
		if prompt != "" {
			s.prompt = prompt
		}
	}
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint, e.g. "http://host/v1".
func WithBaseURL(u string) Option {
	return func(s *settings) {
		s.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// New creates a Client authenticated with apiKey.
func New(apiKey string, opts ...Option) *Client {
	s := settings{
		model:     DefaultModel,
		prompt:    DefaultPrompt,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(&s)
	}

	cfg := openai.DefaultConfig(apiKey)
	if s.baseURL != "" {
		cfg.BaseURL = s.baseURL
	}
	if s.httpClient != nil {
		cfg.HTTPClient = s.httpClient
	}

	return &Client{
		api:       openai.NewClientWithConfig(cfg),
		model:     s.model,
		prompt:    s.prompt,
		maxTokens: s.maxTokens,
	}
}

// Model returns the model identifier requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// Describe returns the model's description of the image at imageURL.
func (c *Client) Describe(ctx context.Context, imageURL string) (string, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return "", ErrEmptyURL
	}

	resp, err := c.api.CreateChatCompletion(ctx, c.request(imageURL))
	if err != nil {
		return "", fmt.Errorf("describe: completion request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyDescription
	}
	return text, nil
}

func (c *Client) request(imageURL string) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: c.prompt,
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
	}
}
