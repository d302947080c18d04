package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const generateTimeout = 30 * time.Second

// Client talks to an OpenAI-compatible completion endpoint. Each call is
// stateless: the prompt is the bare user message, no conversation history
// is sent.
type Client struct {
	llm       llms.LLM
	encoder   *tiktoken.Tiktoken
	maxTokens int
	logger    *zap.Logger
}

func New(baseURL, token, model string, maxPromptTokens int, logger *zap.Logger) (*Client, error) {
	llm, err := openai.New(
		openai.WithToken(token),
		openai.WithBaseURL(baseURL),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}

	encoder, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Local and open-weight models are not in tiktoken's table.
		encoder, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("load token encoder: %w", err)
		}
	}

	return &Client{
		llm:       llm,
		encoder:   encoder,
		maxTokens: maxPromptTokens,
		logger:    logger,
	}, nil
}

// Generate sends the prompt and returns the model's reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	tokens := len(c.encoder.Encode(prompt, nil, nil))
	if c.maxTokens > 0 && tokens > c.maxTokens {
		return "", fmt.Errorf("prompt of %d tokens exceeds limit of %d", tokens, c.maxTokens)
	}

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	start := time.Now()
	completion, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("generate completion: %w", err)
	}

	c.logger.Debug("generated completion",
		zap.Int("prompt_tokens", tokens),
		zap.Duration("duration", time.Since(start)))

	return completion, nil
}
