package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tendant/simple-keyauth/pkg/account"
)

// accountCreateCmd represents the account create command
var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account and print its API key",
	Long: `Create an account and print its API key.

Use this to bootstrap the first account when registration is disabled;
every HTTP route then needs a key.

The API key is written to STDOUT.

Example:
  keyauth account create --user-id admin --email admin@example.com --password s3cret`,
	Run: func(cmd *cobra.Command, args []string) {
		userID, _ := cmd.Flags().GetString("user-id")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		view, err := createAccount(account.NewAccountRequest{
			UserID:   userID,
			Email:    email,
			Password: password,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create account: %v\n", err)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "Created account '%s'\n", view.UserID)
		fmt.Println(view.APIKey)
	},
}

func init() {
	accountCmd.AddCommand(accountCreateCmd)
	accountCreateCmd.Flags().String("user-id", "", "Account user id")
	accountCreateCmd.Flags().String("email", "", "Account email")
	accountCreateCmd.Flags().String("password", "", "Account password")
	_ = accountCreateCmd.MarkFlagRequired("user-id")
	_ = accountCreateCmd.MarkFlagRequired("email")
	_ = accountCreateCmd.MarkFlagRequired("password")
}

func createAccount(req account.NewAccountRequest) (account.AccountView, error) {
	cfg, err := loadConfig()
	if err != nil {
		return account.AccountView{}, err
	}

	ctx := context.Background()
	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return account.AccountView{}, err
	}
	defer closeRepo()

	if err := repo.EnsureSchema(ctx); err != nil {
		return account.AccountView{}, err
	}

	service, err := newService(repo, cfg)
	if err != nil {
		return account.AccountView{}, err
	}
	return service.CreateAccount(ctx, req)
}
