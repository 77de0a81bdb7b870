package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/quizagent/quizagent/config"
	"github.com/quizagent/quizagent/internal/agent"
	"github.com/quizagent/quizagent/internal/telemetry"
)

// Set is the fixed tool catalogue backing agent.Toolbox. Every call yields
// a result string: failures are folded into the text ("Error: ...") so the
// model can read them and correct itself, and sibling calls are never
// aborted.
type Set struct {
	cfg      config.ToolsConfig
	renderer Renderer
	code     *codeRunner
	logger   *log.Logger
}

// Renderer loads a URL in a headless browser and returns rendered HTML.
// Split out as an interface so tests can stub the browser away.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// NewSet wires the full catalogue from config
func NewSet(cfg config.ToolsConfig, logger *log.Logger) *Set {
	if logger == nil {
		logger = log.New(log.Writer(), "[TOOL] ", log.LstdFlags)
	}
	return &Set{
		cfg:      cfg,
		renderer: &chromeRenderer{timeout: cfg.RenderTimeout},
		code:     newCodeRunner(cfg.PythonBin, cfg.CodeTimeout),
		logger:   logger,
	}
}

// WithRenderer swaps the headless browser, for tests
func (s *Set) WithRenderer(r Renderer) *Set {
	s.renderer = r
	return s
}

// Specs returns the catalogue advertised to the model
func (s *Set) Specs() []agent.ToolSpec {
	return []agent.ToolSpec{
		{
			Name:        "render_page",
			Description: "Load a URL in a headless browser, wait for the page to settle, and return the rendered HTML.",
			Parameters:  objectSchema(map[string]string{"url": "The URL to load"}, "url"),
		},
		{
			Name:        "download_and_extract",
			Description: "Download a file (PDF or CSV) and return its content as text. PDF: text of the first pages. CSV: the first rows as a table.",
			Parameters:  objectSchema(map[string]string{"file_url": "The URL of the file to download"}, "file_url"),
		},
		{
			Name:        "http_request",
			Description: "Perform an HTTP request and return the status code and response body. Use this to submit answers as JSON.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"method": {"type": "string", "description": "HTTP method, e.g. GET or POST"},
					"url": {"type": "string", "description": "Target URL"},
					"headers": {"type": "object", "description": "Request headers", "additionalProperties": {"type": "string"}},
					"body": {"type": "string", "description": "Request body"}
				},
				"required": ["method", "url"]
			}`),
		},
		{
			Name:        "execute_code",
			Description: "Execute a Python snippet and return its output. Declare third-party packages with declare_dependencies first.",
			Parameters:  objectSchema(map[string]string{"snippet": "The Python code to run"}, "snippet"),
		},
		{
			Name:        "declare_dependencies",
			Description: "Install Python packages needed by later execute_code calls.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"packages": {"type": "array", "items": {"type": "string"}, "description": "Package names to install"}
				},
				"required": ["packages"]
			}`),
		},
	}
}

// Execute runs one tool call and returns its bounded result text
func (s *Set) Execute(ctx context.Context, call agent.ToolCall) string {
	s.logger.Printf("executing %s", call.Name)
	telemetry.ToolCalls.WithLabelValues(call.Name).Inc()

	var result string
	switch call.Name {
	case "render_page":
		result = s.renderPage(ctx, call.Arguments)
	case "download_and_extract":
		result = s.downloadAndExtract(ctx, call.Arguments)
	case "http_request":
		result = s.httpRequest(ctx, call.Arguments)
	case "execute_code":
		result = s.executeCode(ctx, call.Arguments)
	case "declare_dependencies":
		result = s.declareDependencies(ctx, call.Arguments)
	default:
		result = fmt.Sprintf("Error: unknown tool %q", call.Name)
	}
	return bound(result, s.cfg.ResultMaxChars)
}

// bound truncates a tool result before it enters history, so a single huge
// page or file cannot blow the model's input ceiling
func bound(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "\n[truncated]"
}

func objectSchema(props map[string]string, required ...string) json.RawMessage {
	type prop struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	}
	schema := struct {
		Type       string          `json:"type"`
		Properties map[string]prop `json:"properties"`
		Required   []string        `json:"required"`
	}{Type: "object", Properties: map[string]prop{}, Required: required}
	for name, desc := range props {
		schema.Properties[name] = prop{Type: "string", Description: desc}
	}
	raw, _ := json.Marshal(schema)
	return raw
}
