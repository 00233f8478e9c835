package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/afip-invoicer/pkg/afipinvoice"
)

var svgOutput string

var codeCmd = &cobra.Command{
	Use:   "code <pos:type:number>",
	Short: "Print the barcode number of a receipt",
	Long: `Fetch a receipt and print the number encoded in its barcode: issuer CUIT,
type, point of sale, CAE and CAE expiration followed by a check digit.

Examples:
  afip-invoicer code 1:11:42
  afip-invoicer code 1:11:42 --svg barcode.svg`,
	Args: cobra.ExactArgs(1),
	RunE: runCode,
}

func init() {
	rootCmd.AddCommand(codeCmd)

	codeCmd.Flags().StringVar(&svgOutput, "svg", "", "Write the Interleaved 2 of 5 barcode to this SVG file")
}

func runCode(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout(1))
	defer cancel()

	client, err := newInvoicer(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	defer client.save(ctx)

	receipt, err := client.Fetch(ctx, args[0])
	if err != nil {
		return err
	}

	payload, err := afipinvoice.Barcode(receipt)
	if err != nil {
		return err
	}

	if svgOutput != "" {
		if err := os.WriteFile(svgOutput, payload.SVG, 0o644); err != nil {
			return fmt.Errorf("failed to write barcode: %w", err)
		}
		printVerbose("Barcode written to %s\n", svgOutput)
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	}
	fmt.Fprintln(cmd.OutOrStdout(), payload.Code)
	return nil
}
