package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/quizagent/quizagent/internal/tasklog"
	"github.com/quizagent/quizagent/internal/telemetry"
)

// QuizRequest is the task submission payload
type QuizRequest struct {
	URL    string `json:"url"`
	Secret string `json:"secret"`
}

// HistoryEntry is one task in the /history response, with timestamps
// formatted for readability
type HistoryEntry struct {
	ID          int64   `json:"id"`
	URL         string  `json:"url"`
	SubmittedAt string  `json:"submitted_at"`
	CompletedAt *string `json:"completed_at"`
	Status      string  `json:"status"`
	Result      string  `json:"result"`
}

func (s *Server) homepage(c echo.Context) error {
	return c.HTML(http.StatusOK, `
    <h2>Quiz Agent Backend Running</h2>
    <p>Available endpoints:</p>
    <ul>
        <li><b>GET /healthz</b> - health check</li>
        <li><b>POST /quiz</b> - submit a task</li>
        <li><b>GET /history</b> - view log history</li>
    </ul>
    `)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
	})
}

// solve accepts a quiz URL, validates the shared secret, queues a
// background run and immediately returns the task id
func (s *Server) solve(c echo.Context) error {
	var req QuizRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON")
	}
	if req.URL == "" || req.Secret == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing url or secret")
	}
	if req.Secret != s.cfg.General.Secret {
		return echo.NewHTTPError(http.StatusForbidden, "Invalid secret")
	}

	id := s.tasks.Append(req.URL)
	telemetry.RunsStarted.Inc()
	go s.execute(id, req.URL)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"task_id": id,
	})
}

// execute drives one run to completion and records the outcome. Driver
// failures become the task's result text; they never crash the shell.
func (s *Server) execute(id int64, url string) {
	ctx := context.Background()
	var cancel context.CancelFunc
	if s.runTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	outcome, err := s.runner(ctx, url)
	if err != nil {
		s.logger.Printf("task %d failed: %v", id, err)
		s.tasks.Complete(id, tasklog.StatusFailed, err.Error())
		telemetry.RunsCompleted.WithLabelValues(string(tasklog.StatusFailed)).Inc()
		return
	}

	result := outcome.Result.Answer
	if result == "" {
		result = "Tasks completed successfully"
	}
	s.logger.Printf("task %d completed (%d messages)", id, len(outcome.History))
	s.tasks.Complete(id, tasklog.StatusCompleted, result)
	telemetry.RunsCompleted.WithLabelValues(string(tasklog.StatusCompleted)).Inc()
}

func (s *Server) history(c echo.Context) error {
	entries := s.tasks.Snapshot()
	logs := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		he := HistoryEntry{
			ID:          e.ID,
			URL:         e.URL,
			SubmittedAt: e.SubmittedAt.Format("2006-01-02 15:04:05"),
			Status:      string(e.Status),
			Result:      e.Result,
		}
		if !e.CompletedAt.IsZero() {
			done := e.CompletedAt.Format("2006-01-02 15:04:05")
			he.CompletedAt = &done
		}
		logs = append(logs, he)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(logs),
		"logs":  logs,
	})
}
