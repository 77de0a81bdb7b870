package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/quizagent/quizagent/config"
	"github.com/quizagent/quizagent/internal/agent"
	"github.com/quizagent/quizagent/internal/tools"
	"github.com/quizagent/quizagent/provider"
)

// solveCMD runs one quiz locally without the HTTP shell, useful for
// development and for headless batch usage
func solveCMD() *cobra.Command {
	var cfgPath string
	var submitURL string
	var solve = &cobra.Command{
		Use:   "solve <url>",
		Short: "Run the agent once against a starting URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}

			llm, err := provider.NewProvider(
				cfg.LLM,
				agent.SystemPrompt(cfg.General.Email, cfg.General.Secret),
				log.New(os.Stderr, "[LLM] ", log.LstdFlags),
			)
			if err != nil {
				return err
			}

			toolSet := tools.NewSet(cfg.Tools, log.New(os.Stderr, "[TOOL] ", log.LstdFlags))
			driver := agent.NewDriver(llm, toolSet, agent.Options{
				Email:         cfg.General.Email,
				Secret:        cfg.General.Secret,
				MaxIterations: cfg.General.MaxIterations,
				Logger:        log.New(os.Stderr, "[AGENT] ", log.LstdFlags),
			})

			outcome, err := driver.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("run %s after %d messages\n", outcome.State, len(outcome.History))
			if outcome.Result.Answer != "" {
				fmt.Printf("answer: %s\n", outcome.Result.Answer)
			}

			if submitURL != "" {
				reply, err := agent.NewSubmitter(cfg.LLM.Timeout).Submit(cmd.Context(), submitURL, outcome.Result)
				if err != nil {
					return fmt.Errorf("submitting result: %w", err)
				}
				enc, _ := json.MarshalIndent(reply, "", "  ")
				fmt.Printf("submission response: %s\n", enc)
			}
			return nil
		},
	}
	solve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")
	solve.Flags().StringVar(&submitURL, "submit-url", "", "POST the final result to this URL")

	return solve
}
