package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mousaahmad63636/DataSyncService/internal/httpapi"
	"github.com/Mousaahmad63636/DataSyncService/internal/status"
	"github.com/Mousaahmad63636/DataSyncService/internal/worker"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync service (scheduler + pull API) until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runService()
		},
	}
}

func runService() error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set to serve the pull API")
	}

	log := a.log.WithField("component", "service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Startup probe runs once regardless of the auto-sync toggle.
	worker.Probe(ctx, a.sqlDB, a.mongo, a.reg, log)

	sched := worker.New(a.engine, a.cfg.SyncInterval(), a.reg, a.log.WithField("component", "scheduler"))
	go sched.Run(ctx)
	if a.cfg.AutoSyncEnabled {
		sched.Enable()
	}

	srv := httpapi.NewServer(httpapi.Config{
		Auth:          httpapi.NewAuth(a.cfg.JWTSecret),
		Engine:        a.engine,
		Scheduler:     sched,
		Status:        a.reg,
		Ring:          a.ring,
		Log:           a.log.WithField("component", "httpapi"),
		DefaultWindow: a.cfg.DefaultWindow(),
		QueryTimeout:  300 * time.Second,
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Listen(a.cfg.HTTPListenAddr)
	}()

	a.reg.SetServer(status.ServerRunning)
	log.Infof("service up on %s, device %s", a.cfg.HTTPListenAddr, a.cfg.DeviceID)

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		a.reg.SetServer(status.ServerError)
		stop()
		<-sched.Done()
		return fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http server did not drain cleanly")
	}
	<-sched.Done()
	a.reg.SetServer(status.ServerStopped)
	log.Info("service stopped")
	return nil
}
