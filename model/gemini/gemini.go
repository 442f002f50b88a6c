// Package gemini provides a model.Client for Google Gemini using the genai SDK.
package gemini

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/model"
	"google.golang.org/genai"
)

var _ model.Client = (*Client)(nil)

// Options configures the Gemini client adapter.
type Options struct {
	APIKey       string
	StreamBuffer int
}

// Client wraps genai Models.GenerateContent behind model.Client.
type Client struct {
	client *genai.Client
	opts   Options
}

// NewClient creates a Gemini API backed client.
func NewClient(ctx context.Context, optFns ...func(o *Options)) (*Client, error) {
	opts := Options{StreamBuffer: 32}
	for _, fn := range optFns {
		fn(&opts)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{client: client, opts: opts}, nil
}

// NewClientFromSDK creates a client from an existing genai client.
func NewClientFromSDK(client *genai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{StreamBuffer: 32}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Complete implements model.Client.
func (c *Client) Complete(ctx context.Context, req model.Request) (string, error) {
	cfg, contents := convRequest(req)
	if len(contents) == 0 {
		return "", fmt.Errorf("no contents")
	}
	resp, err := c.client.Models.GenerateContent(ctx, modelName(req.Model), contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini api error: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates")
	}
	return strings.TrimSpace(candidateText(resp.Candidates[0])), nil
}

// CompleteStream implements model.Client.
func (c *Client) CompleteStream(ctx context.Context, req model.Request) (<-chan string, <-chan error) {
	cfg, contents := convRequest(req)
	if len(contents) == 0 {
		return model.StreamError(fmt.Errorf("no contents"))
	}
	out := make(chan string, c.opts.StreamBuffer)
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		defer close(out)
		if err := pull(ctx, c.client.Models.GenerateContentStream(ctx, modelName(req.Model), contents, cfg), out); err != nil {
			errCh <- fmt.Errorf("gemini streaming error: %w", err)
		}
	}()
	return out, errCh
}

func pull(ctx context.Context, itr iter.Seq2[*genai.GenerateContentResponse, error], out chan<- string) error {
	for chunk, err := range itr {
		if err != nil {
			return err
		}
		if len(chunk.Candidates) == 0 {
			continue
		}
		text := candidateText(chunk.Candidates[0])
		if text == "" {
			continue
		}
		select {
		case out <- text:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func candidateText(c *genai.Candidate) string {
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p != nil && p.Text != "" && !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// modelName strips an optional "models/" prefix; the SDK adds it itself.
func modelName(m string) string { return strings.TrimPrefix(m, "models/") }

// convRequest maps the system message to SystemInstruction and the assistant
// role to "model".
func convRequest(req model.Request) (*genai.GenerateContentConfig, []*genai.Content) {
	temperature := float32(req.Temperature)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(req.MaxTokens),
	}
	var system []*genai.Part
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case core.RoleSystem:
			system = append(system, genai.NewPartFromText(m.Content))
		case core.RoleAssistant:
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(m.Content)}, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(m.Content)}, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: system}
	}
	return cfg, contents
}
