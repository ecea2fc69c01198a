// Package lyrics generates personalized song lyrics with an OpenAI-compatible
// chat completion API.
package lyrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tbourn/go-songcard-backend/internal/domain"
	"github.com/tbourn/go-songcard-backend/internal/providers"
)

const (
	providerName = "openai"

	// DefaultModel is used when Config.Model is empty.
	DefaultModel   = "gpt-4-turbo-preview"
	defaultTimeout = 30 * time.Second

	temperature = 0.8
	maxTokens   = 500
)

const systemPrompt = "You are a talented songwriter who writes personalized, heartfelt songs for special occasions. " +
	"Your lyrics are catchy, appropriate for all ages, and capture the unique personality of the recipient."

// Config captures the runtime settings for the lyrics model.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Request carries the card details the prompt is built from.
type Request struct {
	RecipientName     string
	PersonalityTraits []string
	Interests         []string
	Relationship      string
	SenderName        string
	MusicStyle        domain.MusicStyle
	Occasion          domain.Occasion
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client wraps the chat completion endpoint.
type Client struct {
	api     chatCompleter
	model   string
	timeout time.Duration
}

// NewClient constructs a Client from cfg.
func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		oc.BaseURL = strings.TrimRight(base, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{api: openai.NewClientWithConfig(oc), model: model, timeout: timeout}
}

// Generate asks the model for lyrics and returns them trimmed. An empty
// completion fails with providers.ErrGeneration.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(req)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", &providers.AdapterError{Provider: providerName, Op: "generate", Err: providers.ErrGeneration}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &providers.AdapterError{
			Provider: providerName,
			Op:       "generate",
			Body:     fmt.Sprintf("finish_reason=%q", resp.Choices[0].FinishReason),
			Err:      providers.ErrGeneration,
		}
	}
	return text, nil
}

// BuildPrompt renders the user prompt for req.
func BuildPrompt(req Request) string {
	occasion := req.Occasion.Config()
	style := string(req.MusicStyle)
	if sc, ok := req.MusicStyle.Config(); ok {
		style = sc.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write %s song lyrics for someone named %s.\n\n", strings.ToLower(occasion.Name), req.RecipientName)
	b.WriteString("Details about the recipient:\n")
	fmt.Fprintf(&b, "- Personality traits: %s\n", strings.Join(req.PersonalityTraits, ", "))
	fmt.Fprintf(&b, "- Interests/hobbies: %s\n", strings.Join(req.Interests, ", "))
	fmt.Fprintf(&b, "- The sender's relationship to them: %s\n", req.Relationship)
	fmt.Fprintf(&b, "- Sender's name: %s\n", req.SenderName)
	fmt.Fprintf(&b, "- Music style: %s\n\n", style)
	b.WriteString("Guidelines:\n")
	b.WriteString("- Write 2-3 verses and a catchy chorus\n")
	fmt.Fprintf(&b, "- Keep it heartfelt and fitting for a %s\n", strings.ToLower(occasion.Name))
	b.WriteString("- Include the recipient's name naturally in the lyrics\n")
	b.WriteString("- Reference their personality or interests where appropriate\n")
	b.WriteString("- Keep lyrics appropriate for all ages\n")
	b.WriteString("- Each section should be 4-6 lines\n")
	fmt.Fprintf(&b, "- Match the feel of %s music\n\n", style)
	b.WriteString("Output ONLY the lyrics, no commentary or labels.")
	return b.String()
}

func classify(err error) error {
	ae := &providers.AdapterError{Provider: providerName, Op: "generate", Err: err}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		ae.StatusCode = apiErr.HTTPStatusCode
		ae.Body = apiErr.Message
	case errors.As(err, &reqErr):
		ae.StatusCode = reqErr.HTTPStatusCode
	}
	ae.Timeout = providers.IsTimeout(err)
	return ae
}
