package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	githubToken string
)

var rootCmd = &cobra.Command{
	Use:   "diffguard",
	Short: "diffguard reviews GitHub pull requests with a language model.",
	Long: `diffguard fetches the diff of a pull request, asks a language model to
review each changed file, and posts the findings as inline review comments.

It runs either as a one-shot workflow step ('diffguard review') or as a
GitHub App webhook server ('diffguard serve').`,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	rootCmd.PersistentFlags().StringVarP(&githubToken, "github-token", "t", "", "GitHub Token")

	if err := viper.BindPFlag("GITHUB_TOKEN", rootCmd.PersistentFlags().Lookup("github-token")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}
