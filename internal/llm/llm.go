// Package llm provides the Genkit-backed completer used for chat
// generation. The GoogleAI plugin reads GEMINI_API_KEY from the
// environment at initialization.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"google.golang.org/genai"

	"github.com/gentaxai/gentax/internal/log"
	"github.com/gentaxai/gentax/internal/session"
)

// Config contains generation parameters. Model is the provider-qualified
// model name, e.g. "googleai/gemini-2.5-flash".
type Config struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Logger      log.Logger
}

// Client calls the hosted chat-completion API through Genkit. Sampling
// parameters are fixed at construction; each request is attempted exactly
// once with no retry.
type Client struct {
	g           *genkit.Genkit
	model       string
	temperature float32
	maxTokens   int
	logger      log.Logger
}

// New initializes Genkit with the GoogleAI plugin and returns a Client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("model name is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, errors.New("initializing genkit with googleai plugin")
	}

	logger.Info("initialized LLM client",
		"model", cfg.Model,
		"temperature", cfg.Temperature,
		"max_tokens", cfg.MaxTokens)

	return &Client{
		g:           g,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      logger,
	}, nil
}

// Complete submits the ordered transcript and returns the model's reply.
func (c *Client) Complete(ctx context.Context, turns []session.Turn) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.model),
		ai.WithMessages(toMessages(turns)...),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(c.temperature),
			MaxOutputTokens: int32(c.maxTokens), // #nosec G115 -- bounded by config validation
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generating response: %w", err)
	}

	c.logger.Debug("generated response",
		"turns", len(turns),
		"response_length", len(resp.Text()))
	return resp.Text(), nil
}

// toMessages converts session turns to Genkit messages. Assistant turns
// map to the model role; unknown roles default to user.
func toMessages(turns []session.Turn) []*ai.Message {
	messages := make([]*ai.Message, 0, len(turns))
	for _, t := range turns {
		part := ai.NewTextPart(t.Content)
		switch t.Role {
		case session.RoleSystem:
			messages = append(messages, ai.NewSystemMessage(part))
		case session.RoleAssistant:
			messages = append(messages, ai.NewModelMessage(part))
		default:
			messages = append(messages, ai.NewUserMessage(part))
		}
	}
	return messages
}
