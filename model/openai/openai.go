// Package openai provides an implementation of model.Client using the OpenAI
// Chat Completions API. Any OpenAI compatible endpoint works by overriding the
// base URL; the default targets Together AI, which hosts the open models used
// as reference and aggregator models.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/model"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// TogetherBaseURL is the OpenAI compatible endpoint of Together AI.
const TogetherBaseURL = "https://api.together.xyz/v1"

var _ model.Client = (*Client)(nil)

// Options configure the OpenAI client adapter.
type Options struct {
	APIKey  string
	BaseURL string
	// StreamBuffer is the capacity of the fragment channel.
	StreamBuffer int
}

// Client wraps the OpenAI Chat Completions API behind model.Client.
type Client struct {
	client *openai.Client
	opts   Options
}

// NewClient creates a client using the official SDK. Without an explicit
// API key the SDK falls back to the OPENAI_API_KEY environment variable.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{StreamBuffer: 32}
	for _, fn := range optFns {
		fn(&opts)
	}

	var reqOpts []option.RequestOption
	if opts.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := openai.NewClient(reqOpts...)

	return &Client{client: &client, opts: opts}
}

// NewClientFromSDK creates a client from an existing SDK client.
func NewClientFromSDK(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{StreamBuffer: 32}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Complete implements model.Client. The returned text is whitespace trimmed.
func (c *Client) Complete(ctx context.Context, req model.Request) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, buildParams(req))
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// CompleteStream implements model.Client forwarding every non-empty content
// delta in arrival order.
func (c *Client) CompleteStream(ctx context.Context, req model.Request) (<-chan string, <-chan error) {
	out := make(chan string, c.opts.StreamBuffer)
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		defer close(out)

		stream := c.client.Chat.Completions.NewStreaming(ctx, buildParams(req))
		defer stream.Close()

		for stream.Next() {
			ck := stream.Current()
			for _, ch := range ck.Choices {
				if ch.Delta.Content == "" {
					continue
				}
				select {
				case out <- ch.Delta.Content:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("openai streaming error: %w", err)
		}
	}()
	return out, errCh
}

// buildParams converts a normalized request into Chat Completion parameters.
func buildParams(req model.Request) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Messages:    buildMessages(req.Messages),
		Model:       req.Model,
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
	}
}

// buildMessages converts conversation messages into OpenAI chat messages.
func buildMessages(msgs []core.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	return messages
}
