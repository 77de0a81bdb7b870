package tasklog

import (
	"sync"
	"time"
)

// Status of one logged task
type Status string

const (
	StatusQueued    Status = "queued"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Entry is one task in the log. Completed tasks carry either the agent's
// final answer or the failure text in Result.
type Entry struct {
	ID          int64
	URL         string
	SubmittedAt time.Time
	CompletedAt time.Time
	Status      Status
	Result      string
}

// Log is an append-only in-memory task log. Ids are issued by the log
// itself; entries are only ever appended and status-advanced, never
// removed. Safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	nextID  int64
	entries []Entry
}

// New creates an empty log
func New() *Log {
	return &Log{}
}

// Append records a queued task and returns its id
func (l *Log) Append(url string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	l.entries = append(l.entries, Entry{
		ID:          l.nextID,
		URL:         url,
		SubmittedAt: time.Now(),
		Status:      StatusQueued,
	})
	return l.nextID
}

// Complete marks a task finished with the given status and result text
func (l *Log) Complete(id int64, status Status, result string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].Status = status
			l.entries[i].CompletedAt = time.Now()
			l.entries[i].Result = result
			return
		}
	}
}

// Snapshot returns a copy of all entries in submission order
func (l *Log) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
