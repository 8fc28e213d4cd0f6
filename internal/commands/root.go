package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SamuelPereira26/Finhouse/internal/buildinfo"
	"github.com/SamuelPereira26/Finhouse/internal/logger"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:     "finhouse",
		Short:   "Household bank statement import and classification",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.ParseLevel(logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(),
		newCashCommand(),
		newConfirmCommand(),
		newPendingCommand(),
		newRulesCommand(),
		newBudgetCommand(),
		newAnalyticsCommand(),
		newHealthCommand(),
		newExportCommand(),
		newServeCommand(),
	)

	return rootCmd
}
