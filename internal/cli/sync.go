package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mousaahmad63636/DataSyncService/internal/etl"
)

func newSyncCmd() *cobra.Command {
	var entity string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one incremental pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(entity)
		},
	}
	cmd.Flags().StringVarP(&entity, "entity", "e", "", "Sync a single entity (categories, products, ...)")

	return cmd
}

func runSync(entity string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var results []etl.SyncResult
	if entity != "" {
		res, err := a.engine.RunEntity(ctx, entity)
		if err != nil {
			return err
		}
		results = []etl.SyncResult{res}
	} else {
		results = a.engine.RunAll(ctx)
	}

	failed := 0
	for _, r := range results {
		if r.Success {
			fmt.Printf("%-18s synced=%-6d deleted=%-4d skipped=%-4d in %s\n",
				r.Entity, r.Synced, r.Deleted, r.Skipped, r.Elapsed.Round(time.Millisecond))
		} else {
			failed++
			fmt.Printf("%-18s FAILED: %s\n", r.Entity, r.Error)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d entities failed", failed, len(results))
	}
	return nil
}
