package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/ingest"
	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

func newCashCommand() *cobra.Command {
	var repoDir string
	var in ingest.CashInput
	var typ, macro, subcat, note, counterparty, target string

	cmd := &cobra.Command{
		Use:   "cash",
		Short: "Record a manual cash movement",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			in.Type = optionalType(flags.Changed("type"), typ)
			in.Macro = optional(flags.Changed("macro"), macro)
			in.Subcat = optional(flags.Changed("subcat"), subcat)
			in.Note = optional(flags.Changed("note"), note)
			in.Counterparty = optional(flags.Changed("counterparty"), counterparty)
			in.ReimbursementTarget = optional(flags.Changed("reimbursement-target"), target)

			e, err := openCommandEnv(cmd, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			row, err := e.svc.AddCash(cmd.Context(), in)
			if err != nil {
				return err
			}
			if err := e.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s %s %s / %s\n",
				row.TxID, row.Date, normalize.FormatAmount(row.Amount, row.Currency),
				model.Deref(row.Macro), model.Deref(row.Subcat))
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&in.Date, "date", "", "movement date (defaults to today)")
	cmd.Flags().Float64Var(&in.Amount, "amount", 0, "signed amount, negative for expenses (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "what the money was for (required)")
	cmd.Flags().StringVar(&typ, "type", "", "INCOME, EXPENSE, REIMBURSEMENT or TRANSFER")
	cmd.Flags().StringVar(&macro, "macro", "", "macro category")
	cmd.Flags().StringVar(&subcat, "subcat", "", "subcategory")
	cmd.Flags().StringVar(&note, "note", "", "free-text note")
	cmd.Flags().StringVar(&counterparty, "counterparty", "", "counterparty name")
	cmd.Flags().StringVar(&target, "reimbursement-target", "", "macro a reimbursement offsets")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func optional(set bool, v string) *string {
	if !set {
		return nil
	}
	return &v
}

func optionalType(set bool, v string) *model.TransactionType {
	if !set {
		return nil
	}
	t := model.TransactionType(v)
	return &t
}
