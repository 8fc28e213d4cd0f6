package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/model"
	"github.com/SamuelPereira26/Finhouse/internal/store"
)

func newConfirmCommand() *cobra.Command {
	var repoDir string
	var typ, macro, subcat, note string

	cmd := &cobra.Command{
		Use:   "confirm <tx_id>",
		Short: "Confirm or correct a transaction's classification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			patch := store.TransactionPatch{
				Type:   optionalType(flags.Changed("type"), typ),
				Macro:  optional(flags.Changed("macro"), macro),
				Subcat: optional(flags.Changed("subcat"), subcat),
				Note:   optional(flags.Changed("note"), note),
			}

			e, err := openCommandEnv(cmd, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			row, err := e.svc.Confirm(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			if err := e.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Confirmed %s: %s %s / %s\n",
				row.TxID, row.Type, model.Deref(row.Macro), model.Deref(row.Subcat))
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&typ, "type", "", "new transaction type")
	cmd.Flags().StringVar(&macro, "macro", "", "new macro category")
	cmd.Flags().StringVar(&subcat, "subcat", "", "new subcategory")
	cmd.Flags().StringVar(&note, "note", "", "note, required by some macros")

	return cmd
}
