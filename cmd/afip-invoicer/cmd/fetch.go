package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rezonia/afip-invoicer/pkg/afipinvoice"
)

const lastSuffix = ":last"

var fetchCount int

var fetchCmd = &cobra.Command{
	Use:   "fetch <pos:type:number|pos:type:last>",
	Short: "Read receipts back from AFIP",
	Long: `Read an authorized receipt back from AFIP.

AFIP does not return issuer details or line items, so the company is a
placeholder and the receipt carries a single line with the total.

With a ":last" suffix the latest receipts of the point of sale and type are
returned, newest first.

Examples:
  afip-invoicer fetch 1:11:42
  afip-invoicer fetch 1:11:last
  afip-invoicer fetch 1:11:last --count 10 -f json`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().IntVarP(&fetchCount, "count", "n", 1, "Number of receipts to return with :last")
}

// splitLast reports whether arg asks for the latest receipts and returns the
// identifier or pos:type prefix to query.
func splitLast(arg string) (string, bool) {
	if prefix, ok := strings.CutSuffix(arg, lastSuffix); ok {
		return prefix, true
	}
	return arg, false
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout(fetchCount+1))
	defer cancel()

	client, err := newInvoicer(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	defer client.save(ctx)

	var receipts []*afipinvoice.Receipt
	if prefix, last := splitLast(args[0]); last {
		printVerbose("Fetching last %d receipts of %s\n", fetchCount, prefix)
		receipts, err = client.FetchLast(ctx, prefix, fetchCount)
	} else {
		var receipt *afipinvoice.Receipt
		receipt, err = client.Fetch(ctx, prefix)
		receipts = []*afipinvoice.Receipt{receipt}
	}
	if err != nil {
		return err
	}

	return printReceipts(cmd.OutOrStdout(), receipts)
}
