package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

func newPendingCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List transactions awaiting review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openCommandEnv(cmd, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			rows, err := e.svc.Pending(cmd.Context())
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing pending.")
				return nil
			}
			return printTransactions(cmd.OutOrStdout(), rows)
		},
	}

	addRepoFlag(cmd, &repoDir)
	return cmd
}

func printTransactions(out io.Writer, rows []model.MasterRow) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TX_ID\tDATE\tAMOUNT\tTYPE\tMACRO\tSUBCAT\tSTATUS\tDESCRIPTION")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.TxID, r.Date, normalize.FormatAmount(r.Amount, r.Currency), r.Type,
			model.Deref(r.Macro), model.Deref(r.Subcat), r.ReviewStatus,
			normalize.Truncate(r.Description, 40))
	}
	return tw.Flush()
}
