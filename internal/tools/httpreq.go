package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// httpRequest performs an arbitrary outbound HTTP call on behalf of the
// model. This is how answers get submitted: the model assembles the JSON
// body itself and reads the response for the next page URL.
func (s *Set) httpRequest(ctx context.Context, rawArgs json.RawMessage) string {
	var args struct {
		Method  string            `json:"method"`
		URL     string            `json:"url"`
		Headers map[string]string `json:"headers"`
		Body    string            `json:"body"`
	}
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return fmt.Sprintf("Error: invalid http_request arguments: %v", err)
	}
	method := strings.ToUpper(strings.TrimSpace(args.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if args.Body != "" {
		body = strings.NewReader(args.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, args.URL, body)
	if err != nil {
		return fmt.Sprintf("Error building request: %v", err)
	}
	for k, v := range args.Headers {
		req.Header.Set(k, v)
	}
	if args.Body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Sprintf("Error performing request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error reading response: %v", err)
	}
	return fmt.Sprintf("Status: %d\nBody: %s", resp.StatusCode, string(respBody))
}
