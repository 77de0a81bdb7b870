package openai_provider

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/quizagent/quizagent/internal/agent"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	c := NewClient(Config{
		APIKey:       "test-key",
		BaseURL:      ts.URL,
		Model:        "test-model",
		SystemPrompt: "you are a test agent",
		Logger:       log.New(io.Discard, "", 0),
	})
	return c, ts
}

func chatResponse(message string) string {
	return `{"choices":[{"message":` + message + `}]}`
}

func TestCompleteDecodesToolCalls(t *testing.T) {
	var gotReq map[string]interface{}
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		io.WriteString(w, chatResponse(`{
			"role": "assistant",
			"content": null,
			"tool_calls": [{
				"id": "call_abc",
				"type": "function",
				"function": {"name": "render_page", "arguments": "{\"url\":\"http://example.test\"}"}
			}]
		}`))
	})

	history := []agent.Message{agent.UserMessage("http://example.test")}
	tools := []agent.ToolSpec{{Name: "render_page", Description: "render", Parameters: json.RawMessage(`{"type":"object"}`)}}

	msg, err := c.Complete(context.Background(), history, tools)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if msg.Role != agent.RoleAssistant {
		t.Fatalf("role = %v", msg.Role)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("tool calls = %d, want 1", len(msg.ToolCalls))
	}
	tc := msg.ToolCalls[0]
	if tc.ID != "call_abc" || tc.Name != "render_page" {
		t.Fatalf("tool call = %+v", tc)
	}
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(tc.Arguments, &args); err != nil || args.URL != "http://example.test" {
		t.Fatalf("arguments = %s (%v)", tc.Arguments, err)
	}

	// the request carried the system prompt first and the tool catalogue
	msgs, _ := gotReq["messages"].([]interface{})
	if len(msgs) != 2 {
		t.Fatalf("wire messages = %d, want 2", len(msgs))
	}
	first, _ := msgs[0].(map[string]interface{})
	if first["role"] != "system" {
		t.Fatalf("first wire message role = %v, want system", first["role"])
	}
	if wireTools, _ := gotReq["tools"].([]interface{}); len(wireTools) != 1 {
		t.Fatalf("wire tools = %d, want 1", len(wireTools))
	}
}

func TestCompleteFlattensPartsContent(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, chatResponse(`{
			"role": "assistant",
			"content": [{"type": "text", "text": "END"}, {"type": "text", "text": "ignored"}]
		}`))
	})

	msg, err := c.Complete(context.Background(), []agent.Message{agent.UserMessage("go")}, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if msg.Content != "END" {
		t.Fatalf("content = %q, want END (first part only)", msg.Content)
	}
}

func TestCompleteMalformedContentIsEmpty(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, chatResponse(`{"role": "assistant", "content": 42}`))
	})

	msg, err := c.Complete(context.Background(), []agent.Message{agent.UserMessage("go")}, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if msg.Content != "" {
		t.Fatalf("content = %q, want empty on malformed content", msg.Content)
	}
}

func TestCompleteAPIErrorStatus(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	})

	if _, err := c.Complete(context.Background(), []agent.Message{agent.UserMessage("go")}, nil); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestCompleteEncodesToolResults(t *testing.T) {
	var rawBody []byte
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, chatResponse(`{"role": "assistant", "content": "ok"}`))
	})

	history := []agent.Message{
		agent.UserMessage("http://example.test"),
		{
			Role: agent.RoleAssistant,
			ToolCalls: []agent.ToolCall{
				{ID: "call_1", Name: "render_page", Arguments: json.RawMessage(`{"url":"x"}`)},
			},
		},
		agent.ToolResultMessage("call_1", "<p>2+2=?</p>"),
	}
	if _, err := c.Complete(context.Background(), history, nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	var req struct {
		Messages []struct {
			Role       string `json:"role"`
			ToolCallID string `json:"tool_call_id"`
			ToolCalls  []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(rawBody, &req); err != nil {
		t.Fatalf("decoding wire request: %v", err)
	}
	// system + user + assistant + tool
	if len(req.Messages) != 4 {
		t.Fatalf("wire messages = %d, want 4", len(req.Messages))
	}
	assistant := req.Messages[2]
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].Function.Name != "render_page" {
		t.Fatalf("assistant wire message = %+v", assistant)
	}
	toolMsg := req.Messages[3]
	if toolMsg.Role != "tool" || toolMsg.ToolCallID != "call_1" {
		t.Fatalf("tool wire message = %+v", toolMsg)
	}
}

func TestRateLimiterAdmitsBurstThenWaits(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, chatResponse(`{"role": "assistant", "content": "ok"}`))
	}))
	defer ts.Close()

	// capacity 9, refill 9 per 3s: one token roughly every 333ms
	limiter := rate.NewLimiter(rate.Limit(9.0/3.0), 9)
	c := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Model:   "test-model",
		Limiter: limiter,
		Logger:  log.New(io.Discard, "", 0),
	})

	history := []agent.Message{agent.UserMessage("go")}

	start := time.Now()
	for i := 0; i < 9; i++ {
		if _, err := c.Complete(context.Background(), history, nil); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	burst := time.Since(start)
	if burst > 300*time.Millisecond {
		t.Fatalf("first 9 calls took %v, expected the full burst unthrottled", burst)
	}

	if _, err := c.Complete(context.Background(), history, nil); err != nil {
		t.Fatalf("call 10: %v", err)
	}
	total := time.Since(start)
	if total < 300*time.Millisecond {
		t.Fatalf("10th call finished after %v, expected it to wait for refill", total)
	}
}
