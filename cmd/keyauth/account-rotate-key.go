package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// accountRotateKeyCmd represents the account rotate-key command
var accountRotateKeyCmd = &cobra.Command{
	Use:   "rotate-key",
	Short: "Replace an account's API key",
	Long: `Replace an account's API key with a newly generated one.

The old key stops working immediately. The new key is written to STDOUT.

Example:
  keyauth account rotate-key --user-id admin`,
	Run: func(cmd *cobra.Command, args []string) {
		userID, _ := cmd.Flags().GetString("user-id")

		apiKey, err := rotateKey(userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to rotate key for %s: %v\n", userID, err)
			os.Exit(1)
		}
		fmt.Println(apiKey)
	},
}

func init() {
	accountCmd.AddCommand(accountRotateKeyCmd)
	accountRotateKeyCmd.Flags().String("user-id", "", "Account user id")
	_ = accountRotateKeyCmd.MarkFlagRequired("user-id")
}

func rotateKey(userID string) (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer closeRepo()

	service, err := newService(repo, cfg)
	if err != nil {
		return "", err
	}
	view, err := service.RotateAPIKey(ctx, userID)
	if err != nil {
		return "", err
	}
	return view.APIKey, nil
}
