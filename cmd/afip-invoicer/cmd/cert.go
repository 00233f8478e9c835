package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/afip-invoicer/internal/signature"
	"github.com/rezonia/afip-invoicer/internal/signature/trust"
)

var caFile string

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Check the certificate and private key used for WSAA logins",
	Long: `Check the configured certificate and private key before talking to AFIP.

Verifies:
  - Certificate and key parse and belong together
  - Certificate is within its validity window (warns 30 days before expiry)
  - Certificate chains to the given CA (with --ca-file)
  - Certificate subject CUIT matches the configured CUIT

Examples:
  afip-invoicer cert --certificate cert.pem --private-key key.pem
  afip-invoicer cert --ca-file afip-ca.pem -f json`,
	Args: cobra.NoArgs,
	RunE: runCert,
}

func init() {
	rootCmd.AddCommand(certCmd)

	certCmd.Flags().StringVar(&caFile, "ca-file", "", "CA certificates (PEM) the certificate must chain to")
}

func runCert(cmd *cobra.Command, args []string) error {
	if cfg.Certificate == "" || cfg.PrivateKey == "" {
		return fmt.Errorf("missing required settings: certificate, private-key")
	}

	certPEM, err := os.ReadFile(cfg.Certificate)
	if err != nil {
		return fmt.Errorf("failed to read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(cfg.PrivateKey)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}

	pair, err := signature.ParseKeyPair(certPEM, keyPEM)
	if err != nil {
		return err
	}

	store := trust.NewTrustStore()
	if caFile != "" {
		printVerbose("Loading CA certificates from %s\n", caFile)
		if err := store.LoadFile(caFile); err != nil {
			return err
		}
		printVerbose("Trusted roots: %s\n", strings.Join(store.Subjects(), ", "))
	}

	report := signature.Inspect(pair, store, time.Now())
	if cfg.CUIT != "" && report.Subject.CUIT != "" && report.Subject.CUIT != cfg.CUIT {
		report.AddError(fmt.Sprintf("certificate belongs to CUIT %s, configured CUIT is %s", report.Subject.CUIT, cfg.CUIT))
	}

	w := cmd.OutOrStdout()
	if outputFormat == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return err
		}
	} else {
		printCertificateReport(w, cfg.Certificate, report)
	}

	if !report.Valid {
		return fmt.Errorf("certificate check failed")
	}
	return nil
}
