package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezonia/afip-invoicer/pkg/afipinvoice"
)

var refreshSession bool

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show or refresh the cached WSAA session",
	Long: `Show whether a valid WSAA session is cached and when it expires.

With --refresh a new login ticket is requested from WSAA and stored.

Examples:
  afip-invoicer session
  afip-invoicer session --refresh`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(sessionCmd)

	sessionCmd.Flags().BoolVar(&refreshSession, "refresh", false, "Log in again even if the cached session is valid")
}

func runSession(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout(0))
	defer cancel()

	client, err := newInvoicer(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	status := client.SessionStatus()
	if refreshSession {
		if status, err = client.RefreshSession(ctx); err != nil {
			return err
		}
		client.save(ctx)
	}

	return printSession(cmd, status)
}

func printSession(cmd *cobra.Command, status afipinvoice.SessionStatus) error {
	w := cmd.OutOrStdout()
	if outputFormat == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(status)
	}

	if !status.Active {
		fmt.Fprintln(w, failStyle.Render("✗ no active session"))
		return nil
	}
	fmt.Fprintln(w, passStyle.Render("✓ session active"))
	if status.Expiration != nil {
		fmt.Fprintf(w, "  %s%s (in %s)\n", labelStyle.Render("Expires:"), status.Expiration.Format("2006-01-02 15:04:05 -07:00"), status.ExpiresIn)
	}
	return nil
}
