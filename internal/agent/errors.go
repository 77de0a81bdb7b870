package agent

import "errors"

var (
	// ErrProvider marks a failed LLM call. The driver does not retry it;
	// the run fails and the error text becomes the task result.
	ErrProvider = errors.New("llm provider call failed")

	// ErrIterationLimit marks a run that exhausted its reasoning-pass
	// ceiling without reaching the terminal token.
	ErrIterationLimit = errors.New("iteration limit exceeded")
)
