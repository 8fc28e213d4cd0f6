package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/model"
)

func newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage classification rules",
	}
	cmd.AddCommand(newRulesListCommand(), newRulesAddCommand())
	return cmd
}

func newRulesListCommand() *cobra.Command {
	var repoDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openCommandEnv(cmd, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			rules, err := e.svc.Rules(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPRIORITY\tACTIVE\tMATCH\tTEXT\tMACRO\tSUBCAT")
			for _, r := range rules {
				fmt.Fprintf(tw, "%s\t%d\t%t\t%s\t%s\t%s\t%s\n",
					r.ID, r.Priority, r.Active, r.MatchType, model.Deref(r.MatchText),
					model.Deref(r.AssignMacro), model.Deref(r.AssignSubcat))
			}
			return tw.Flush()
		},
	}

	addRepoFlag(cmd, &repoDir)
	return cmd
}

func newRulesAddCommand() *cobra.Command {
	var repoDir string
	var pattern, macro, subcat, typ, source string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an INCLUDES rule from a description pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openCommandEnv(cmd, repoDir)
			if err != nil {
				return err
			}
			defer e.close()

			flags := cmd.Flags()
			rule, err := e.svc.CreateRuleFromPattern(cmd.Context(), pattern,
				optional(flags.Changed("source"), source), macro, subcat,
				optionalType(flags.Changed("type"), typ))
			if err != nil {
				return err
			}
			if err := e.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created rule %s: %q -> %s / %s\n",
				rule.ID, model.Deref(rule.MatchText), model.Deref(rule.AssignMacro), model.Deref(rule.AssignSubcat))
			return nil
		},
	}

	addRepoFlag(cmd, &repoDir)
	cmd.Flags().StringVar(&pattern, "pattern", "", "text the description must contain (required)")
	cmd.Flags().StringVar(&macro, "macro", "", "macro to assign (defaults to Otros)")
	cmd.Flags().StringVar(&subcat, "subcat", "", "subcategory to assign")
	cmd.Flags().StringVar(&typ, "type", "", "type to assign (defaults to EXPENSE)")
	cmd.Flags().StringVar(&source, "source", "", "restrict the rule to one source")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}
