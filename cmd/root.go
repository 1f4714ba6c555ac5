package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "probquiz",
	Short: "Probability practice question service",
	Long:  "Probquiz — stateless HTTP service that generates probability practice questions with an LLM and checks answers against them.",
	RunE: runServe,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(func() {
		// Missing .env is fine; the environment may be set directly.
		_ = godotenv.Load()
	})

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
