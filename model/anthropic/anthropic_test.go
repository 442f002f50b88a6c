package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/moa/core"
	"github.com/hupe1980/moa/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParams_SystemSeparated(t *testing.T) {
	params := buildParams(model.Request{
		Model:       "claude-3-5-sonnet-latest",
		Messages:    []core.Message{core.SystemMessage("be nice"), core.UserMessage("hi"), core.AssistantMessage("hello")},
		Temperature: 0.3,
		MaxTokens:   100,
	})

	require.Len(t, params.System, 1)
	assert.Equal(t, "be nice", params.System[0].Text)
	assert.Len(t, params.Messages, 2)
	assert.Equal(t, int64(100), params.MaxTokens)
}

func TestClient_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		events := []struct{ name, data string }{
			{"message_start", `{"type":"message_start","message":{"id":"m1","type":"message","role":"assistant","model":"claude","content":[],"stop_reason":null,"usage":{"input_tokens":1,"output_tokens":0}}}`},
			{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`},
			{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`},
			{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo!"}}`},
			{"content_block_stop", `{"type":"content_block_stop","index":0}`},
			{"message_stop", `{"type":"message_stop"}`},
		}
		for _, ev := range events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, ev.data)
		}
	}))
	defer srv.Close()

	c := NewClient(func(o *Options) {
		o.APIKey = "test"
		o.BaseURL = srv.URL
	})

	frags, errCh := c.CompleteStream(context.Background(), model.Request{
		Model:     "claude",
		Messages:  []core.Message{core.SystemMessage("s"), core.UserMessage("Hello")},
		MaxTokens: 16,
	})

	var got []string
	for f := range frags {
		got = append(got, f)
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"Hel", "lo!"}, got)
}
