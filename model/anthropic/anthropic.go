// Package anthropic provides a model.Client for the Anthropic Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/model"
)

var _ model.Client = (*Client)(nil)

// Options configures the Anthropic client adapter.
type Options struct {
	APIKey       string
	BaseURL      string
	StreamBuffer int
}

// Client wraps the Anthropic Messages API behind model.Client.
type Client struct {
	client *anthropic.Client
	opts   Options
}

// NewClient creates a client using the official SDK. Without an explicit
// API key the SDK falls back to the ANTHROPIC_API_KEY environment variable.
func NewClient(optFns ...func(o *Options)) *Client {
	opts := Options{StreamBuffer: 32}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Client{
		client: &client,
		opts:   opts,
	}
}

// NewClientFromSDK creates a client from an existing SDK client.
func NewClientFromSDK(client *anthropic.Client, optFns ...func(o *Options)) *Client {
	opts := Options{StreamBuffer: 32}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{
		client: client,
		opts:   opts,
	}
}

// Complete implements model.Client returning the concatenated text blocks.
func (c *Client) Complete(ctx context.Context, req model.Request) (string, error) {
	resp, err := c.client.Messages.New(ctx, buildParams(req))
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

// CompleteStream implements model.Client forwarding text deltas.
func (c *Client) CompleteStream(ctx context.Context, req model.Request) (<-chan string, <-chan error) {
	out := make(chan string, c.opts.StreamBuffer)
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		defer close(out)

		stream := c.client.Messages.NewStreaming(ctx, buildParams(req))
		defer stream.Close()

		for stream.Next() {
			event := stream.Current()

			delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
			if !ok {
				continue
			}

			text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
			if !ok || text.Text == "" {
				continue
			}

			select {
			case out <- text.Text:
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			}
		}

		if err := stream.Err(); err != nil {
			errCh <- fmt.Errorf("anthropic streaming error: %w", err)
		}
	}()

	return out, errCh
}

// buildParams converts a normalized request into Messages API parameters.
// System messages move into the dedicated System field.
func buildParams(req model.Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		Messages:    buildMessages(req.Messages),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
	}

	if system := extractSystem(req.Messages); len(system) > 0 {
		params.System = system
	}

	return params
}

// buildMessages converts user / assistant messages to Anthropic message format.
func buildMessages(msgs []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, m := range msgs {
		if m.Content == "" {
			continue
		}

		switch m.Role {
		case core.RoleSystem:
			continue
		case core.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	return messages
}

// extractSystem collects system messages as text blocks.
func extractSystem(msgs []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam

	for _, m := range msgs {
		if m.Role == core.RoleSystem && m.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: m.Content})
		}
	}

	return blocks
}
