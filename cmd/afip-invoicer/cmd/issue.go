package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rezonia/afip-invoicer/internal/receiptfile"
	"github.com/rezonia/afip-invoicer/pkg/afipinvoice"
)

var issueCmd = &cobra.Command{
	Use:   "issue <file>",
	Short: "Authorize a receipt with AFIP",
	Long: `Read a receipt from a JSON or YAML file, obtain its number and CAE from
AFIP and print the authorized receipt.

The file describes the issuing company, the customer, the point of sale and
the items:

  {
    "company": {"name": "ACME S.A.", "cuit": "20123456789", ...},
    "customer": {"identity_document": "30111222", "name": "Juan Perez"},
    "point_of_sale": 1,
    "items": [{"name": "Consultoria", "amount": 1, "price": "1500.00"}]
  }

Examples:
  afip-invoicer issue receipt.json
  afip-invoicer issue receipt.yaml --production -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runIssue,
}

func init() {
	rootCmd.AddCommand(issueCmd)
}

func runIssue(cmd *cobra.Command, args []string) error {
	file, err := receiptfile.Load(args[0])
	if err != nil {
		return err
	}

	if report := file.Validate(false); !report.Valid {
		for _, e := range report.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", e)
		}
		return fmt.Errorf("invalid receipt file %s", args[0])
	}

	receipt, err := file.ToReceipt()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout(3))
	defer cancel()

	client, err := newInvoicer(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	printVerbose("Committing %s (total %s)\n", args[0], receipt.Total().StringFixed(2))
	_, err = client.Issue(ctx, receipt)
	client.save(ctx)
	if err != nil {
		return err
	}

	return printReceipts(cmd.OutOrStdout(), []*afipinvoice.Receipt{receipt})
}
