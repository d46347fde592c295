// Package worker hosts the periodic sync trigger and the startup probe. One
// goroutine owns all passes, so the single-flight rule (one pass at a time,
// ticks never queue behind a slow pass) holds by construction.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Mousaahmad63636/DataSyncService/internal/etl"
	"github.com/Mousaahmad63636/DataSyncService/internal/status"
)

// State is the scheduler lifecycle phase.
type State string

const (
	StateDisabled State = "Disabled"
	StateIdle     State = "Enabled-Idle"
	StateRunning  State = "Enabled-Running"
	StateStopped  State = "Stopped"
)

// ErrPassInFlight is returned by TryRunNow while a pass is running or queued.
var ErrPassInFlight = errors.New("a sync pass is already in flight")

// ErrStopped is returned by TryRunNow after shutdown.
var ErrStopped = errors.New("scheduler is stopped")

// PassRunner is the engine surface the scheduler drives.
type PassRunner interface {
	RunAll(ctx context.Context) []etl.SyncResult
}

// Scheduler fires incremental passes on a fixed cadence. Enabling fires an
// immediate pass and restarts the cadence from it; disabling suppresses
// future ticks but never cancels the pass in flight. Manual passes requested
// through TryRunNow run on the same goroutine, outside the toggle.
type Scheduler struct {
	runner   PassRunner
	interval time.Duration
	reg      *status.Registry
	log      *logrus.Entry

	mu       sync.Mutex
	enabled  bool
	stopped  bool
	inFlight bool

	kick   chan struct{}
	manual chan struct{}
	done   chan struct{}
}

func New(runner PassRunner, interval time.Duration, reg *status.Registry, log *logrus.Entry) *Scheduler {
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		reg:      reg,
		log:      log,
		kick:     make(chan struct{}, 1),
		manual:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Run owns the scheduler until ctx is cancelled. Shutdown lets the pass in
// flight finish (cancellation reaches it at its next source or target call)
// and starts no new one.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Infof("scheduler ready, cadence %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.stopped = true
			s.mu.Unlock()
			s.log.Info("scheduler stopped")
			return
		case <-s.kick:
			// An enable fires a pass right away; the cadence restarts from it.
			ticker.Reset(s.interval)
			s.runScheduled(ctx)
		case <-ticker.C:
			s.runScheduled(ctx)
		case <-s.manual:
			s.runPass(ctx)
		}
		// A tick that fired while the pass ran is dropped, not queued.
		select {
		case <-ticker.C:
		default:
		}
	}
}

// Done is closed once Run has exited.
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Enable turns the periodic trigger on and fires an immediate pass.
func (s *Scheduler) Enable() {
	s.mu.Lock()
	if s.stopped || s.enabled {
		s.mu.Unlock()
		return
	}
	s.enabled = true
	s.mu.Unlock()

	s.reg.SetAutoSync(true)
	s.log.Info("auto sync enabled")
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Disable turns the periodic trigger off from any enabled state.
func (s *Scheduler) Disable() {
	s.mu.Lock()
	if s.stopped || !s.enabled {
		s.mu.Unlock()
		return
	}
	s.enabled = false
	s.mu.Unlock()

	s.reg.SetAutoSync(false)
	s.log.Info("auto sync disabled")
}

// TryRunNow queues one pass outside the cadence; it works while the trigger
// is disabled. At most one pass can be running or queued.
func (s *Scheduler) TryRunNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if s.inFlight {
		return ErrPassInFlight
	}
	select {
	case s.manual <- struct{}{}:
		return nil
	default:
		return ErrPassInFlight
	}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.stopped:
		return StateStopped
	case !s.enabled:
		return StateDisabled
	case s.inFlight:
		return StateRunning
	default:
		return StateIdle
	}
}

// runScheduled drops the tick when the trigger is off.
func (s *Scheduler) runScheduled(ctx context.Context) {
	s.mu.Lock()
	enabled := s.enabled
	s.mu.Unlock()
	if !enabled {
		return
	}
	s.runPass(ctx)
}

func (s *Scheduler) runPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	failed := 0
	results := s.runner.RunAll(ctx)
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	if failed > 0 {
		s.log.Warnf("pass finished with %d of %d entities failing", failed, len(results))
	}
}
