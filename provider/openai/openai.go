package openai_provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/quizagent/quizagent/internal/agent"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config holds everything the client needs; the limiter is owned by the
// caller so it can be shared across concurrent runs.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	SystemPrompt string
	Limiter      *rate.Limiter
	Logger       *log.Logger
}

// client implements agent.Provider against the OpenAI chat completions API
type client struct {
	apiKey       string
	baseURL      string
	model        string
	temperature  float64
	maxTokens    int
	systemPrompt string
	limiter      *rate.Limiter
	httpClient   *http.Client
	logger       *log.Logger
}

// NewClient creates a new OpenAI chat client
func NewClient(cfg Config) *client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[LLM] ", log.LstdFlags)
	}
	return &client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: cfg.SystemPrompt,
		limiter:      cfg.Limiter,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       cfg.Logger,
	}
}

// wireMessage is a message in the chat completions wire format. Content is
// kept raw on the way in because the API may answer with either a plain
// string or a list of typed parts.
type wireMessage struct {
	Role       string          `json:"role"`
	Content    json.RawMessage `json:"content,omitempty"`
	ToolCalls  []wireToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type wireTool struct {
	Type     string          `json:"type"`
	Function wireFunctionDef `json:"function"`
}

type wireFunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// request represents a request to the chat completions API
type request struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// response represents a response from the chat completions API
type response struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete issues one chat completion call for the given history. The call
// waits on the shared token bucket first: when the bucket is empty the
// goroutine suspends until capacity refills, it never drops the request.
func (c *client) Complete(ctx context.Context, history []agent.Message, tools []agent.ToolSpec) (agent.Message, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return agent.Message{}, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	reqBody := request{
		Model:       c.model,
		Messages:    c.encodeMessages(history),
		Tools:       encodeTools(tools),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return agent.Message{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return agent.Message{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return agent.Message{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return agent.Message{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return agent.Message{}, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var openaiResp response
	if err := json.Unmarshal(raw, &openaiResp); err != nil {
		return agent.Message{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if openaiResp.Error != nil {
		return agent.Message{}, fmt.Errorf("API error: %s", openaiResp.Error.Message)
	}
	if len(openaiResp.Choices) == 0 {
		return agent.Message{}, fmt.Errorf("no choices in response")
	}

	return decodeAssistant(openaiResp.Choices[0].Message), nil
}

func (c *client) encodeMessages(history []agent.Message) []wireMessage {
	out := make([]wireMessage, 0, len(history)+1)
	if c.systemPrompt != "" {
		out = append(out, wireMessage{Role: "system", Content: encodeContent(c.systemPrompt)})
	}
	for _, m := range history {
		wm := wireMessage{Role: string(m.Role), ToolCallID: m.ToolCallID}
		if m.Content != "" || len(m.ToolCalls) == 0 {
			wm.Content = encodeContent(m.Content)
		}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireFunction{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		out = append(out, wm)
	}
	return out
}

func encodeTools(tools []agent.ToolSpec) []wireTool {
	out := make([]wireTool, 0, len(tools))
	for _, t := range tools {
		out = append(out, wireTool{
			Type: "function",
			Function: wireFunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

func encodeContent(text string) json.RawMessage {
	raw, _ := json.Marshal(text)
	return raw
}

// decodeAssistant resolves the wire message into the internal tagged union.
// List-shaped content is flattened to the first part's text here, once, at
// the boundary; a missing or malformed content field becomes the empty
// string.
func decodeAssistant(wm wireMessage) agent.Message {
	msg := agent.Message{
		Role:    agent.RoleAssistant,
		Content: flattenContent(wm.Content),
	}
	for _, tc := range wm.ToolCalls {
		id := tc.ID
		if id == "" {
			id = uuid.NewString()
		}
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		msg.ToolCalls = append(msg.ToolCalls, agent.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}
	return msg
}

func flattenContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil && len(parts) > 0 {
		return parts[0].Text
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
