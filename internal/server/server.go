package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quizagent/quizagent/config"
	"github.com/quizagent/quizagent/internal/agent"
	"github.com/quizagent/quizagent/internal/tasklog"
	"github.com/quizagent/quizagent/internal/tools"
	"github.com/quizagent/quizagent/provider"
)

// RunnerFunc executes one agent run for a starting URL
type RunnerFunc func(ctx context.Context, url string) (*agent.RunOutcome, error)

// Server is the thin HTTP shell around the agent: it accepts tasks,
// executes them in the background, and serves the in-memory task log.
type Server struct {
	cfg        *config.Config
	tasks      *tasklog.Log
	runner     RunnerFunc
	logger     *log.Logger
	runTimeout time.Duration
	startTime  time.Time
}

// NewServer wires a server shell around an injected task log and runner
func NewServer(cfg *config.Config, tasks *tasklog.Log, runner RunnerFunc, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	return &Server{
		cfg:        cfg,
		tasks:      tasks,
		runner:     runner,
		logger:     logger,
		runTimeout: cfg.General.RunTimeout,
		startTime:  time.Now(),
	}
}

// Echo builds the routed echo instance
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))

	e.GET("/", s.homepage)
	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.POST("/quiz", s.solve)
	e.GET("/history", s.history)
	return e
}

// Run wires the full stack from config and serves until the listener fails
func Run(cfg *config.Config) error {
	agentLogger := log.New(log.Writer(), "[AGENT] ", log.LstdFlags)

	llm, err := provider.NewProvider(
		cfg.LLM,
		agent.SystemPrompt(cfg.General.Email, cfg.General.Secret),
		log.New(log.Writer(), "[LLM] ", log.LstdFlags),
	)
	if err != nil {
		return err
	}

	toolSet := tools.NewSet(cfg.Tools, log.New(log.Writer(), "[TOOL] ", log.LstdFlags))
	driver := agent.NewDriver(llm, toolSet, agent.Options{
		Email:         cfg.General.Email,
		Secret:        cfg.General.Secret,
		MaxIterations: cfg.General.MaxIterations,
		Logger:        agentLogger,
	})

	srv := NewServer(cfg, tasklog.New(), driver.Run, nil)
	e := srv.Echo()
	srv.logger.Printf("listening on %s", cfg.Server.Address)
	return e.Start(cfg.Server.Address)
}
