package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/gitops"
	"github.com/SamuelPereira26/Finhouse/internal/ledger"
	"github.com/SamuelPereira26/Finhouse/internal/store"
)

// exportLimit caps the rows read for one month's export.
const exportLimit = 5000

func newExportCommand() *cobra.Command {
	var repoDir, month string
	var toStdout, commit bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a month's transactions to ledger/YYYY/MM/transactions.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if month == "" {
				month = time.Now().Format("2006-01")
			}
			e, err := openCommandEnv(cmd, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			page, err := e.svc.Transactions(cmd.Context(), store.TransactionFilter{
				Month:            month,
				IncludeTransfers: true,
				Limit:            exportLimit,
			})
			if err != nil {
				return err
			}

			if toStdout {
				return ledger.WriteRows(cmd.OutOrStdout(), page.Rows)
			}
			path, err := ledger.New(e.repo).WriteMonth(month, page.Rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d transactions to %s\n", len(page.Rows), path)

			if !commit {
				return nil
			}
			if !gitops.IsRepo(e.repo) {
				return fmt.Errorf("%s is not a git repository", e.repo)
			}
			hash, err := gitops.CommitPaths(e.repo, "ledger: export "+month, gitops.DefaultAuthor, path)
			if errors.Is(err, gitops.ErrNothingToCommit) {
				fmt.Fprintln(cmd.OutOrStdout(), "Ledger unchanged, nothing to commit.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Committed %s\n", hash)
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (defaults to the current month)")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write CSV to stdout instead of the ledger")
	cmd.Flags().BoolVar(&commit, "commit", false, "commit the exported file to the household git repository")
	return cmd
}
