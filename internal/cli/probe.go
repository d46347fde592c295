package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mousaahmad63636/DataSyncService/internal/worker"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check connectivity to SQL Server and MongoDB",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe()
		},
	}
}

func runProbe() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	ok := worker.Probe(ctx, a.sqlDB, a.mongo, a.reg, a.log.WithField("component", "probe"))

	snap := a.reg.Snapshot()
	fmt.Printf("source: %s\n", snap.ConnectionStatus)
	fmt.Printf("target: %s\n", snap.TargetStatus)
	if !ok {
		return fmt.Errorf("probe failed")
	}
	return nil
}
