package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/afip-invoicer/internal/config"
	"github.com/rezonia/afip-invoicer/internal/logger"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	configFile   string

	v   = config.New()
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "afip-invoicer",
	Short: "Issue and query AFIP electronic invoices (WSFEv1)",
	Long: `afip-invoicer authorizes receipts with AFIP's electronic invoicing web service
and reads them back.

The WSAA session (token and sign) is cached in the credentials file, or in
PostgreSQL when AFIP_DATABASE_DSN is set, and reused until it expires.

Examples:
  # Authorize a receipt described in a JSON or YAML file
  afip-invoicer issue receipt.json

  # Read a receipt back
  afip-invoicer fetch 1:11:42

  # Read the last 5 receipts of point of sale 1, type C
  afip-invoicer fetch 1:11:last --count 5

  # Print the barcode number and write the barcode image
  afip-invoicer code 1:11:42 --svg barcode.svg

  # Validate receipt files without contacting AFIP
  afip-invoicer validate receipts/*.json`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	flags.StringVarP(&outputFormat, "format", "f", "table", "Output format (json, table)")
	flags.StringVar(&configFile, "config", "", "Config file (default: ./afip-invoicer.yaml if present)")
	flags.String("cuit", "", "Issuer CUIT (env: AFIP_CUIT)")
	flags.String("certificate", "", "PEM certificate issued by AFIP (env: AFIP_CERTIFICATE)")
	flags.String("private-key", "", "PEM private key of the certificate (env: AFIP_PRIVATE_KEY)")
	flags.String("credentials", "", "Session cache file (env: AFIP_CREDENTIALS)")
	flags.Bool("production", false, "Use the production endpoints instead of homologation (env: AFIP_PRODUCTION)")

	// flags override env and file values
	for key, name := range map[string]string{
		"cuit":        "cuit",
		"certificate": "certificate",
		"private_key": "private-key",
		"credentials": "credentials",
		"production":  "production",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

func initConfig() error {
	var err error
	cfg, err = config.Load(v, configFile)
	if err != nil {
		return err
	}

	if outputFormat != "json" && outputFormat != "table" {
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}

	logCfg := cfg.Log
	if verbose {
		logCfg.Level = "debug"
	}
	return logger.Setup(logCfg)
}

// commandTimeout bounds a command making the given number of AFIP calls,
// plus one for a possible login.
func commandTimeout(calls int) time.Duration {
	return time.Duration(calls+1) * cfg.Timeout
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
