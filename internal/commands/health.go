package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/model"
)

func newHealthCommand() *cobra.Command {
	var repoDir string
	var limit int

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show the newest data-quality findings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openCommandEnv(cmd, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			rows, err := e.svc.Health(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No findings.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CREATED\tLEVEL\tCHECK\tBATCH\tDETAILS")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					r.CreatedAt, r.Level, r.Check, model.Deref(r.BatchID), r.Details)
			}
			return tw.Flush()
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().IntVar(&limit, "limit", 20, "number of findings to show")
	return cmd
}
