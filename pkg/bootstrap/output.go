package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// PrintBootstrapResult displays the bootstrap results in a clean, formatted way
func PrintBootstrapResult(w io.Writer, result *AdminBootstrapResult) {
	if result == nil || !result.UserCreated {
		return
	}

	border := strings.Repeat("=", 80)
	fmt.Fprintf(w, "\n%s\n", border)
	fmt.Fprintln(w, "ADMIN BOOTSTRAP COMPLETED")
	fmt.Fprintf(w, "%s\n", border)

	printAccountSection(w, result)
	printSecurityWarnings(w, result.PasswordFromEnv)

	fmt.Fprintf(w, "%s\n\n", border)
}

// printAccountSection prints information about the created admin account
func printAccountSection(w io.Writer, result *AdminBootstrapResult) {
	fmt.Fprintln(w, "\nAdmin Account:")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "  User ID:   %s\n", result.UserID)
	fmt.Fprintf(w, "  Email:     %s\n", result.Email)
	fmt.Fprintf(w, "  API Key:   %s\n", result.APIKey)

	// Only display password if it was auto-generated (not from environment)
	if !result.PasswordFromEnv {
		fmt.Fprintf(w, "  Password:  %s\n", result.Password)
	} else {
		fmt.Fprintln(w, "  Password:  (configured via ADMIN_PASSWORD environment variable)")
	}
}

// printSecurityWarnings prints important security warnings
func printSecurityWarnings(w io.Writer, passwordFromEnv bool) {
	fmt.Fprintln(w, "\nSECURITY REMINDERS:")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	fmt.Fprintln(w, "  • THE API KEY WILL NOT BE DISPLAYED AGAIN - SAVE IT NOW!")
	if passwordFromEnv {
		fmt.Fprintln(w, "  • Admin password was set via environment variable")
		fmt.Fprintln(w, "  • Ensure ADMIN_PASSWORD is removed from .env after startup")
	} else {
		fmt.Fprintln(w, "  • Store the generated password in a secure password manager")
	}
	fmt.Fprintln(w, "  • Use 'keyauth account rotate-key' if the key leaks")
}

// LogBootstrapSummary logs a concise summary using slog (for structured logging)
func LogBootstrapSummary(result *AdminBootstrapResult) {
	if result == nil || !result.UserCreated {
		return
	}

	// Log without sensitive information (password, api key)
	slog.Info("Admin bootstrap summary",
		"user_id", result.UserID,
		"password_from_env", result.PasswordFromEnv,
	)
}
