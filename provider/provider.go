package provider

import (
	"errors"
	"log"

	"golang.org/x/time/rate"

	"github.com/quizagent/quizagent/config"
	"github.com/quizagent/quizagent/internal/agent"
	openai_provider "github.com/quizagent/quizagent/provider/openai"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI    Client = "openai"
	Anthropic Client = "anthropic"
	Gemini    Client = "gemini"
)

// NewProvider creates an LLM client based on the provided configuration.
// The returned provider carries the process-wide token bucket: all runs
// share one limiter, and concurrent runs contend for the same budget.
func NewProvider(cfg config.LLMConfig, systemPrompt string, logger *log.Logger) (agent.Provider, error) {
	limiter := rate.NewLimiter(
		rate.Limit(float64(cfg.RateLimit.Requests)/cfg.RateLimit.Window.Seconds()),
		cfg.RateLimit.Requests,
	)

	switch Client(cfg.Provider) {
	case OpenAI:
		return openai_provider.NewClient(openai_provider.Config{
			APIKey:       cfg.APIKey,
			BaseURL:      cfg.BaseURL,
			Model:        cfg.Model,
			Temperature:  cfg.Temperature,
			MaxTokens:    cfg.MaxTokens,
			Timeout:      cfg.Timeout,
			SystemPrompt: systemPrompt,
			Limiter:      limiter,
			Logger:       logger,
		}), nil
	case Anthropic:
		return nil, errors.New("anthropic client not implemented yet")
	case Gemini:
		return nil, errors.New("gemini client not implemented yet")
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
