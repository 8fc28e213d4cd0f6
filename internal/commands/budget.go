package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

func newBudgetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage monthly budgets",
	}
	cmd.AddCommand(newBudgetSetCommand(), newBudgetListCommand(), newBudgetStatusCommand())
	return cmd
}

func newBudgetSetCommand() *cobra.Command {
	var repoDir string
	var b model.Budget

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the budget of one macro for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if b.Month == "" {
				b.Month = time.Now().Format("2006-01")
			}
			e, err := openCommandEnv(cmd, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			saved, err := e.svc.SaveBudget(cmd.Context(), b)
			if err != nil {
				return err
			}
			if err := e.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Budget %s %s: %s\n",
				saved.Month, saved.Macro, normalize.FormatAmount(saved.Amount, "EUR"))
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&b.Month, "month", "", "month as YYYY-MM (defaults to the current month)")
	cmd.Flags().StringVar(&b.Macro, "macro", "", "macro category (required)")
	cmd.Flags().Float64Var(&b.Amount, "amount", 0, "budget amount (required)")
	cmd.Flags().BoolVar(&b.Alert75, "alert75", false, "alert at 75% of the budget")
	cmd.Flags().BoolVar(&b.Alert100, "alert100", false, "alert when the budget is exceeded")
	_ = cmd.MarkFlagRequired("macro")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newBudgetListCommand() *cobra.Command {
	var repoDir, month string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the budgets of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openCommandEnv(cmd, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			budgets, err := e.svc.Budgets(cmd.Context(), month)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MONTH\tMACRO\tAMOUNT\tALERT75\tALERT100")
			for _, b := range budgets {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\n",
					b.Month, b.Macro, normalize.FormatAmount(b.Amount, "EUR"), b.Alert75, b.Alert100)
			}
			return tw.Flush()
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (defaults to the current month)")
	return cmd
}

func newBudgetStatusCommand() *cobra.Command {
	var repoDir, month string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Compare each budget with the month's spend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openCommandEnv(cmd, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			lines, err := e.svc.BudgetStatus(cmd.Context(), month)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MACRO\tSPENT\tBUDGET\tUSED\tALERT")
			for _, l := range lines {
				alert := ""
				switch {
				case l.Alert100:
					alert = "100%"
				case l.Alert75:
					alert = "75%"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%s\n",
					l.Macro, normalize.FormatAmount(l.Spent, "EUR"), normalize.FormatAmount(l.Budget, "EUR"),
					l.Ratio*100, alert)
			}
			return tw.Flush()
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (defaults to the current month)")
	return cmd
}
