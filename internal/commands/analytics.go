package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/normalize"
)

func newAnalyticsCommand() *cobra.Command {
	var repoDir, month string
	var offset float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show the monthly summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openCommandEnv(cmd, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			s, err := e.svc.Analytics(cmd.Context(), month, offset)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Month\t%s\n", s.Month)
			fmt.Fprintf(tw, "Income\t%s\n", normalize.FormatAmount(s.Income, "EUR"))
			fmt.Fprintf(tw, "Life expense\t%s\n", normalize.FormatAmount(s.LifeExpense, "EUR"))
			fmt.Fprintf(tw, "Available\t%s\n", normalize.FormatAmount(s.Available, "EUR"))
			fmt.Fprintf(tw, "Contributions\t%s\n", normalize.FormatAmount(s.Contributions, "EUR"))
			fmt.Fprintf(tw, "Donations\t%s\n", normalize.FormatAmount(s.Donations, "EUR"))
			fmt.Fprintln(tw)
			for _, m := range s.ByMacro {
				fmt.Fprintf(tw, "  %s\t%s\n", m.Macro, normalize.FormatAmount(m.Amount, "EUR"))
			}
			return tw.Flush()
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (defaults to the current month)")
	cmd.Flags().Float64Var(&offset, "offset", 0, "opening balance for the trend")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}
