package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// Provider is the LLM collaborator. One call produces exactly one new
// assistant message, or an error that fails the run.
type Provider interface {
	Complete(ctx context.Context, history []Message, tools []ToolSpec) (Message, error)
}

// Toolbox is the fixed catalogue of actions a reasoning pass may invoke.
// Execute never returns an error: tool failures are folded into the result
// text so the model can read them and self-correct.
type Toolbox interface {
	Specs() []ToolSpec
	Execute(ctx context.Context, call ToolCall) string
}

// State is the loop driver's terminal disposition
type State string

const (
	StateRunning    State = "running"
	StateTerminated State = "terminated"
	StateFailed     State = "failed"
)

// RunResult is the final payload of a completed run, built once at
// termination and never mutated afterwards.
type RunResult struct {
	Email     string `json:"email"`
	Secret    string `json:"secret"`
	URL       string `json:"url"`
	Answer    string `json:"answer"`
	SubmitURL string `json:"submit_url,omitempty"`
}

// RunOutcome carries the terminal state together with the full history,
// which is kept intact on failure for diagnostics.
type RunOutcome struct {
	State   State
	History []Message
	Result  RunResult
}

// Driver owns one conversation and alternates reasoning and routing until
// the terminal token, an error, or the iteration ceiling.
type Driver struct {
	provider      Provider
	tools         Toolbox
	logger        *log.Logger
	email         string
	secret        string
	maxIterations int
}

// Options tunes a Driver beyond its collaborators
type Options struct {
	Email         string
	Secret        string
	MaxIterations int
	Logger        *log.Logger
}

const defaultMaxIterations = 200

// NewDriver wires a loop driver from its collaborators
func NewDriver(provider Provider, tools Toolbox, opts Options) *Driver {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = defaultMaxIterations
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[AGENT] ", log.LstdFlags)
	}
	return &Driver{
		provider:      provider,
		tools:         tools,
		logger:        opts.Logger,
		email:         opts.Email,
		secret:        opts.Secret,
		maxIterations: opts.MaxIterations,
	}
}

// Run executes one conversation seeded with the starting URL. The history
// is append-only: every reasoning pass adds one assistant message, every
// serviced tool call adds one tool message, and nothing is ever removed.
// A run is sequential end to end; concurrency exists only across runs.
func (d *Driver) Run(ctx context.Context, startURL string) (*RunOutcome, error) {
	history := []Message{UserMessage(startURL)}
	lastAnswer := ""

	fail := func(err error) (*RunOutcome, error) {
		return &RunOutcome{State: StateFailed, History: history}, err
	}

	for pass := 0; ; pass++ {
		// cancellation is only honored between iterations; a tool call in
		// flight is allowed to finish
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if pass >= d.maxIterations {
			return fail(fmt.Errorf("%w: %d reasoning passes without terminal token", ErrIterationLimit, pass))
		}

		msg, err := d.provider.Complete(ctx, history, d.tools.Specs())
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrProvider, err))
		}
		history = append(history, msg)

		switch route(msg) {
		case RouteTools:
			d.logger.Printf("pass %d: %d tool call(s)", pass, len(msg.ToolCalls))
			for _, call := range msg.ToolCalls {
				result := d.tools.Execute(ctx, call)
				history = append(history, ToolResultMessage(call.ID, result))
			}
		case RouteEnd:
			d.logger.Printf("pass %d: terminal token, run complete", pass)
			return &RunOutcome{
				State:   StateTerminated,
				History: history,
				Result: RunResult{
					Email:  d.email,
					Secret: d.secret,
					URL:    startURL,
					Answer: lastAnswer,
				},
			}, nil
		case RouteAgent:
			// a plain text pass; remember it as the candidate answer and
			// let the model keep reasoning
			if text := strings.TrimSpace(msg.Content); text != "" {
				lastAnswer = text
			}
		}
	}
}
