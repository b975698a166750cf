package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lawdesk/internal/config"
	"github.com/dgallion1/lawdesk/internal/llm"
	"github.com/dgallion1/lawdesk/internal/qa"
)

var askCategory string

var askCmd = &cobra.Command{
	Use:   "ask [dir] [question]",
	Short: "Answer a question against a library directory",
	Long: `Indexes a library directory and runs both question-answering stages
against it. The provider is configured from the environment and .env, the same
variables the server reads.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askCategory, "category", "c", "", "category to search")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	log := newLogger(cmd)

	if err := config.LoadEnvFile(); err != nil {
		return err
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ix, _, err := loadLibrary(cmd.Context(), args[0], log)
	if err != nil {
		return err
	}

	baseURL := cfg.OllamaURL
	if cfg.LLMProvider == "anthropic" {
		baseURL = ""
	}
	client, err := llm.New(llm.Config{
		Provider: cfg.LLMProvider,
		BaseURL:  baseURL,
		Model:    cfg.Model(),
		APIKey:   cfg.AnthropicAPIKey,
		Timeout:  cfg.LLMTimeout,
		Options: llm.Options{
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			MinP:        cfg.LLMMinP,
		},
		MaxRetries: cfg.LLMMaxRetries,
	}, log)
	if err != nil {
		return err
	}
	defer client.Close()

	return ask(cmd, qa.New(client, ix, log), args[1], askCategory)
}

// ask prints stage progress to the error stream and the answer to stdout.
func ask(cmd *cobra.Command, svc *qa.Service, question, category string) error {
	final := svc.AskWithStages(cmd.Context(), question, category, func(e qa.Event) {
		switch e.Stage {
		case qa.StageRecommending:
			fmt.Fprintln(cmd.ErrOrStderr(), e.StatusMessage)
		case qa.StageAnswering:
			fmt.Fprintln(cmd.ErrOrStderr(), e.StatusMessage)
			for _, t := range e.RecommendedArticles {
				fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", t)
			}
		}
	})
	fmt.Fprintln(cmd.OutOrStdout(), final.FinalAnswer)
	return nil
}
