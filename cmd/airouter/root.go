package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "airouter",
	Short: "OpenAI-compatible gateway for multiple LLM providers",
	Long: `Airouter is an OpenAI-compatible HTTP gateway that fronts a pool of
upstream LLM credentials (OpenAI, Anthropic, Google Vertex AI, Gemini).

Clients talk plain OpenAI API; the gateway picks a healthy credential
for the requested model, rewrites model aliases, retries transient
upstream failures on other credentials, enforces per-minute rate
limits, and bans credentials that keep failing.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
}
