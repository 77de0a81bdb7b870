package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSubmitPostsResultJSON(t *testing.T) {
	var got RunResult
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"next": "http://example.test/q2"})
	}))
	defer ts.Close()

	result := RunResult{
		Email:  "agent@example.test",
		Secret: "s3cret",
		URL:    "http://example.test/q1",
		Answer: "4",
	}
	reply, err := NewSubmitter(5*time.Second).Submit(context.Background(), ts.URL, result)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got != result {
		t.Fatalf("server received %+v, want %+v", got, result)
	}
	if reply["next"] != "http://example.test/q2" {
		t.Fatalf("reply = %v", reply)
	}
}

func TestSubmitURLOverrideWins(t *testing.T) {
	hit := false
	override := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer override.Close()

	result := RunResult{Answer: "42", SubmitURL: override.URL}
	if _, err := NewSubmitter(5*time.Second).Submit(context.Background(), "http://unused.invalid", result); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !hit {
		t.Fatal("override URL was not used")
	}
}

func TestSubmitNon200IsError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer ts.Close()

	if _, err := NewSubmitter(5*time.Second).Submit(context.Background(), ts.URL, RunResult{}); err == nil {
		t.Fatal("expected error on 403")
	}
}
