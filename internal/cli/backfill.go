package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill",
		Short: "Replicate the full transaction history in weekly windows",
		Long: `backfill walks Transactions by business date from the oldest row forward,
checkpointing after each processed week so an interrupted run resumes where
it stopped. Once complete, incremental passes narrow their default window.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill()
		},
	}
}

func runBackfill() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return a.engine.RunBackfill(ctx)
}
