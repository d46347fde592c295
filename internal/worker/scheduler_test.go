package worker

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/Mousaahmad63636/DataSyncService/internal/etl"
	"github.com/Mousaahmad63636/DataSyncService/internal/status"
)

type fakeRunner struct {
	mu     sync.Mutex
	passes int

	started chan struct{} // buffered, one signal per pass start
	block   chan struct{} // when set, passes wait here
	delay   time.Duration

	active  atomic.Int32
	overlap atomic.Bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{started: make(chan struct{}, 64)}
}

func (f *fakeRunner) RunAll(ctx context.Context) []etl.SyncResult {
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	defer f.active.Add(-1)

	select {
	case f.started <- struct{}{}:
	default:
	}
	if f.block != nil {
		<-f.block
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.passes++
	f.mu.Unlock()
	return []etl.SyncResult{{Entity: "categories", Success: true}}
}

func (f *fakeRunner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passes
}

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func startScheduler(t *testing.T, runner PassRunner, interval time.Duration) (*Scheduler, context.CancelFunc) {
	t.Helper()
	s := New(runner, interval, status.NewRegistry(), testLog())
	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return s, cancel
}

func waitStart(t *testing.T, f *fakeRunner) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(2 * time.Second):
		t.Fatal("no pass started")
	}
}

func waitCount(t *testing.T, f *fakeRunner, want int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.count() == want },
		2*time.Second, 5*time.Millisecond)
}

func TestSchedulerStartsDisabled(t *testing.T) {
	runner := newFakeRunner()
	s, _ := startScheduler(t, runner, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	require.Zero(t, runner.count(), "ticks must be dropped while disabled")
	require.Equal(t, StateDisabled, s.State())
}

func TestEnableFiresImmediatePass(t *testing.T) {
	runner := newFakeRunner()
	s, _ := startScheduler(t, runner, time.Hour)

	s.Enable()
	waitStart(t, runner)
	waitCount(t, runner, 1)
	require.Eventually(t, func() bool { return s.State() == StateIdle },
		2*time.Second, 5*time.Millisecond)

	// A second enable is a no-op and must not fire again.
	s.Enable()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, runner.count())
}

func TestDisableSuppressesTicks(t *testing.T) {
	runner := newFakeRunner()
	s, _ := startScheduler(t, runner, 10*time.Millisecond)

	s.Enable()
	waitStart(t, runner)

	s.Disable()
	time.Sleep(30 * time.Millisecond) // let any in-flight pass drain
	n := runner.count()

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, n, runner.count(), "ticks must be dropped after disable")
	require.Equal(t, StateDisabled, s.State())
}

func TestTryRunNowWorksWhileDisabled(t *testing.T) {
	runner := newFakeRunner()
	s, _ := startScheduler(t, runner, time.Hour)

	require.NoError(t, s.TryRunNow())
	waitStart(t, runner)
	waitCount(t, runner, 1)
	require.Equal(t, StateDisabled, s.State())
}

func TestTryRunNowRejectsSecondPass(t *testing.T) {
	runner := newFakeRunner()
	runner.block = make(chan struct{})
	s, _ := startScheduler(t, runner, time.Hour)

	require.NoError(t, s.TryRunNow())
	waitStart(t, runner)
	require.ErrorIs(t, s.TryRunNow(), ErrPassInFlight)

	close(runner.block)
	waitCount(t, runner, 1)

	require.NoError(t, s.TryRunNow())
	waitCount(t, runner, 2)
}

func TestStoppedScheduler(t *testing.T) {
	runner := newFakeRunner()
	s, cancel := startScheduler(t, runner, time.Hour)

	cancel()
	<-s.Done()

	require.Equal(t, StateStopped, s.State())
	require.ErrorIs(t, s.TryRunNow(), ErrStopped)

	s.Enable() // must not panic or revive the loop
	require.Equal(t, StateStopped, s.State())
}

func TestPassesNeverOverlap(t *testing.T) {
	runner := newFakeRunner()
	runner.delay = 5 * time.Millisecond
	s, _ := startScheduler(t, runner, time.Millisecond)

	s.Enable()
	deadline := time.Now().Add(150 * time.Millisecond)
	for time.Now().Before(deadline) {
		_ = s.TryRunNow() // rejected whenever one is in flight
		time.Sleep(time.Millisecond)
	}

	require.False(t, runner.overlap.Load(), "two passes ran concurrently")
	require.Greater(t, runner.count(), 0)
}
