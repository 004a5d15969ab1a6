// Package main provides cardgen, a command-line client for the card
// generation pipeline. It generates cards for one or more topics without
// running the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cardgen",
	Short: "Generate children's learning cards from the command line",
	Long: "cardgen runs the WonderCards generation pipeline directly against the configured " +
		"LLM backend. Configuration is read the same way as the server (config.yaml, .env and " +
		"WONDER_* environment variables).",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
