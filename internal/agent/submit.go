package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Submitter posts a finished RunResult to a submission endpoint and decodes
// the JSON reply. Used by the document-question variant where the caller,
// not the model, performs the final submission.
type Submitter struct {
	httpClient *http.Client
}

// NewSubmitter builds a Submitter with the given request timeout
func NewSubmitter(timeout time.Duration) *Submitter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Submitter{httpClient: &http.Client{Timeout: timeout}}
}

// Submit posts the result as JSON. The target is the result's SubmitURL
// override when present, otherwise the given default URL.
func (s *Submitter) Submit(ctx context.Context, submitURL string, result RunResult) (map[string]interface{}, error) {
	target := submitURL
	if result.SubmitURL != "" {
		target = result.SubmitURL
	}
	if target == "" {
		return nil, fmt.Errorf("no submission url")
	}

	body, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("submission returned status %d: %s", resp.StatusCode, string(raw))
	}

	var reply map[string]interface{}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return reply, nil
}
