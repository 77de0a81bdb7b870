package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quizagent/quizagent/internal/agent"
)

func TestHTTPRequestRoundTrip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.Header.Get("X-Custom"); got != "yes" {
			t.Errorf("header X-Custom = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"answer":"4"}` {
			t.Errorf("body = %s", body)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"next":"http://example.test/q2"}`)
	}))
	defer ts.Close()

	args, _ := json.Marshal(map[string]interface{}{
		"method":  "post",
		"url":     ts.URL,
		"headers": map[string]string{"X-Custom": "yes"},
		"body":    `{"answer":"4"}`,
	})
	result := testSet(t).Execute(context.Background(), agent.ToolCall{ID: "c1", Name: "http_request", Arguments: args})

	if !strings.HasPrefix(result, "Status: 201") {
		t.Fatalf("result = %q", result)
	}
	if !strings.Contains(result, `"next":"http://example.test/q2"`) {
		t.Fatalf("body missing from result: %q", result)
	}
}

func TestHTTPRequestDefaultsToGET(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		io.WriteString(w, "ok")
	}))
	defer ts.Close()

	args, _ := json.Marshal(map[string]string{"url": ts.URL})
	result := testSet(t).Execute(context.Background(), agent.ToolCall{ID: "c1", Name: "http_request", Arguments: args})
	if !strings.HasPrefix(result, "Status: 200") {
		t.Fatalf("result = %q", result)
	}
}

func TestHTTPRequestConnectionErrorBecomesText(t *testing.T) {
	args, _ := json.Marshal(map[string]string{"method": "GET", "url": "http://127.0.0.1:1/nothing"})
	result := testSet(t).Execute(context.Background(), agent.ToolCall{ID: "c1", Name: "http_request", Arguments: args})
	if !strings.HasPrefix(result, "Error performing request:") {
		t.Fatalf("result = %q", result)
	}
}
