package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "keyauth",
	Short: "API key account service",
	Long: `keyauth stores user accounts with Argon2id password hashes and issues
one API key per account. Requests to the HTTP API authenticate with that key.

Configuration is read from the environment, after an optional .env file.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
