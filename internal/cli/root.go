// Package cli wires the service together behind its Cobra commands.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "datasync",
		Short: "One-way replication of POS data from SQL Server into MongoDB",
		Long: `datasync replicates business records (categories, products, customers,
settings, employees, expenses, transactions) from a SQL Server database into
MongoDB. Incremental passes resume from per-device checkpoints; a bulk
backfill walks the full transaction history.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newBackfillCmd())
	rootCmd.AddCommand(newProbeCmd())
	rootCmd.AddCommand(newTokenCmd())

	return rootCmd
}
