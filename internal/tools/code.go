package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// codeRunner executes Python snippets and tracks the packages declared for
// them. Installed packages are remembered so repeated declarations are
// cheap no-ops.
type codeRunner struct {
	pythonBin string
	timeout   time.Duration

	mu        sync.Mutex
	installed map[string]bool
}

func newCodeRunner(pythonBin string, timeout time.Duration) *codeRunner {
	if pythonBin == "" {
		pythonBin = "python3"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &codeRunner{
		pythonBin: pythonBin,
		timeout:   timeout,
		installed: make(map[string]bool),
	}
}

func (r *codeRunner) run(ctx context.Context, snippet string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.pythonBin, "-c", snippet)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%v: %s", err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

func (r *codeRunner) install(ctx context.Context, packages []string) (string, error) {
	r.mu.Lock()
	var missing []string
	for _, p := range packages {
		p = strings.TrimSpace(p)
		if p != "" && !r.installed[p] {
			missing = append(missing, p)
		}
	}
	r.mu.Unlock()

	if len(missing) == 0 {
		return "All requested packages already installed.", nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := append([]string{"-m", "pip", "install", "--quiet"}, missing...)
	cmd := exec.CommandContext(ctx, r.pythonBin, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%v: %s", err, strings.TrimSpace(string(out)))
	}

	r.mu.Lock()
	for _, p := range missing {
		r.installed[p] = true
	}
	r.mu.Unlock()

	return fmt.Sprintf("Installed: %s", strings.Join(missing, ", ")), nil
}

func (s *Set) executeCode(ctx context.Context, rawArgs json.RawMessage) string {
	var args struct {
		Snippet string `json:"snippet"`
	}
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return fmt.Sprintf("Error: invalid execute_code arguments: %v", err)
	}
	out, err := s.code.run(ctx, args.Snippet)
	if err != nil {
		return fmt.Sprintf("Error executing code: %v", err)
	}
	if strings.TrimSpace(out) == "" {
		return "(no output)"
	}
	return out
}

func (s *Set) declareDependencies(ctx context.Context, rawArgs json.RawMessage) string {
	var args struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(rawArgs, &args); err != nil {
		return fmt.Sprintf("Error: invalid declare_dependencies arguments: %v", err)
	}
	out, err := s.code.install(ctx, args.Packages)
	if err != nil {
		return fmt.Sprintf("Error installing packages: %v", err)
	}
	return out
}
