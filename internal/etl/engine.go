package etl

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Mousaahmad63636/DataSyncService/internal/status"
	"github.com/Mousaahmad63636/DataSyncService/pkg/models"
)

const (
	// unbatchedPageLimit bounds pages for entities without a configured batch
	// size.
	unbatchedPageLimit = 1000

	// backfillEntity is the checkpoint stream the historical backfill runs
	// under, separate from the incremental transactions stream.
	backfillEntity = "transactions_bulk"

	// backfillWindowSize is one backfill unit of work: a week of business
	// dates per durable checkpoint advance.
	backfillWindowSize = 7 * 24 * time.Hour
)

// Registration binds one extractor to its pass parameters.
type Registration struct {
	Extractor Extractor

	// BatchSize is the page limit for this entity; 0 means unbatchedPageLimit.
	BatchSize int

	// QueryTimeout is the deadline for one source query, including any child
	// row fetches the extractor performs for the page.
	QueryTimeout time.Duration

	// FullSnapshot marks entities replicated whole every pass: the cursor
	// starts at zero and page cursors are never persisted.
	FullSnapshot bool
}

// Options carry the pass parameters shared by every entity.
type Options struct {
	DeviceID string

	// DefaultWindow is how far back a first pass looks when no checkpoint
	// exists yet.
	DefaultWindow time.Duration

	// NarrowWindow replaces DefaultWindow for transactions once the
	// historical backfill has completed.
	NarrowWindow time.Duration

	// MaxReplay floors stored cursors: a checkpoint older than now-MaxReplay
	// is clamped rather than replayed in full.
	MaxReplay time.Duration

	// InterBatchDelay gives the source breathing room between pages.
	InterBatchDelay time.Duration
}

// Engine drives sync passes: per entity it reconciles deletions, pages
// changed rows into the target, and advances the durable checkpoint so the
// next pass resumes where this one stopped acknowledging.
type Engine struct {
	opts   Options
	loader Loader
	cps    CheckpointStore
	reg    *status.Registry
	log    *logrus.Entry
	regs   []Registration

	now func() time.Time
}

func NewEngine(opts Options, loader Loader, cps CheckpointStore, reg *status.Registry, log *logrus.Entry) *Engine {
	if opts.DefaultWindow <= 0 {
		opts.DefaultWindow = 30 * 24 * time.Hour
	}
	if opts.NarrowWindow <= 0 {
		opts.NarrowWindow = 3 * 24 * time.Hour
	}
	if opts.MaxReplay <= 0 {
		opts.MaxReplay = 365 * 24 * time.Hour
	}
	return &Engine{opts: opts, loader: loader, cps: cps, reg: reg, log: log, now: time.Now}
}

// Register adds an entity to the pass order. Entities sync in registration
// order.
func (e *Engine) Register(r Registration) {
	if r.BatchSize <= 0 {
		r.BatchSize = unbatchedPageLimit
	}
	if r.QueryTimeout <= 0 {
		r.QueryTimeout = time.Minute
	}
	e.regs = append(e.regs, r)
}

func (e *Engine) Registrations() []Registration { return e.regs }

// Lookup finds the registration for an entity name.
func (e *Engine) Lookup(entity string) (Registration, bool) {
	for _, r := range e.regs {
		if r.Extractor.Entity() == entity {
			return r, true
		}
	}
	return Registration{}, false
}

// RunAll syncs every registered entity once, in order. A failed entity does
// not stop the pass; each result carries its own outcome. All entity logs of
// one call share a run id.
func (e *Engine) RunAll(ctx context.Context) []SyncResult {
	runID := uuid.NewString()
	e.reg.SetSyncing(true)
	defer e.reg.SetSyncing(false)

	results := make([]SyncResult, 0, len(e.regs))
	for _, r := range e.regs {
		if ctx.Err() != nil {
			break
		}
		results = append(results, e.runPass(ctx, r, runID))
	}
	return results
}

// RunEntity syncs a single entity by name.
func (e *Engine) RunEntity(ctx context.Context, entity string) (SyncResult, error) {
	r, ok := e.Lookup(entity)
	if !ok {
		return SyncResult{}, fmt.Errorf("unknown entity %q", entity)
	}
	e.reg.SetSyncing(true)
	defer e.reg.SetSyncing(false)
	return e.runPass(ctx, r, uuid.NewString()), nil
}

func (e *Engine) runPass(ctx context.Context, r Registration, runID string) SyncResult {
	started := e.now().UTC()
	entity := r.Extractor.Entity()
	log := e.log.WithFields(logrus.Fields{"entity": entity, "runId": runID})

	res := SyncResult{Entity: entity}
	final, err := e.pass(ctx, r, started, log, &res)
	res.Elapsed = e.now().Sub(started)
	if err != nil {
		res.Error = err.Error()
		log.Errorf("%s sync failed after %s: %v", entity, res.Elapsed.Round(time.Millisecond), err)
	} else {
		res.Success = true
		log.Infof("SUCCESS: %s sync finished in %s, %d synced, %d deleted, %d skipped",
			entity, res.Elapsed.Round(time.Millisecond), res.Synced, res.Deleted, res.Skipped)
	}
	e.writeSyncLog(ctx, runID, res, final, started)
	return res
}

// pass runs one entity sync: deletions first, then changed pages until the
// source is drained. It returns the last durably persisted cursor.
func (e *Engine) pass(ctx context.Context, r Registration, passStart time.Time, log *logrus.Entry, res *SyncResult) (Cursor, error) {
	entity := r.Extractor.Entity()

	cp, err := e.cps.Get(ctx, e.opts.DeviceID, entity)
	if err != nil {
		return Cursor{}, err
	}
	cur := e.resolveCursor(ctx, cp, r, log)

	live, err := e.liveIDs(ctx, r)
	if err != nil {
		return cur, err
	}
	present, err := e.loader.PresentIDs(ctx, entity)
	if err != nil {
		return cur, err
	}

	// Deletions run before inserts so a row deleted and recreated in the
	// source ends the pass present in the target.
	doomed := make(map[int64]struct{})
	for id := range present {
		if _, ok := live[id]; !ok {
			doomed[id] = struct{}{}
		}
	}
	sweeper, sweeps := r.Extractor.(SoftDeleteSweeper)
	if sweeps {
		sweepSince := cur.Since
		if cp != nil && cp.LastDeleteCheck != nil {
			sweepSince = *cp.LastDeleteCheck
		}
		swept, err := e.softDeletedIDs(ctx, r, sweeper, sweepSince)
		if err != nil {
			return cur, err
		}
		for _, id := range swept {
			doomed[id] = struct{}{}
		}
	}
	if len(doomed) > 0 {
		n, err := e.loader.DeleteByIDs(ctx, entity, sortedIDs(doomed))
		if err != nil {
			return cur, err
		}
		res.Deleted = int(n)
		log.Debugf("%s: removed %d target documents", entity, n)
	}
	if sweeps {
		if err := e.cps.SetDeleteCheck(ctx, e.opts.DeviceID, entity, passStart, cur.Since); err != nil {
			return cur, err
		}
	}

	persisted := cur
	for {
		page, err := e.changedPage(ctx, r, cur)
		if err != nil {
			return persisted, err
		}
		if len(page.Docs) > 0 {
			sum, err := e.loader.UpsertBatch(ctx, entity, page.Docs)
			if err != nil {
				return persisted, err
			}
			if sum.Failed >= len(page.Docs) {
				return persisted, fmt.Errorf("all %d writes in %s batch failed", len(page.Docs), entity)
			}
			res.Synced += len(page.Docs) - sum.Failed
			res.Skipped += sum.Failed
		}
		res.Skipped += page.Skipped

		if !r.FullSnapshot {
			if next := persistCursor(page, persisted); next.After(persisted) {
				if err := e.cps.Upsert(ctx, CheckpointUpdate{
					DeviceID:     e.opts.DeviceID,
					EntityType:   entity,
					LastSyncTime: next.Since,
					LastRecordID: next.AfterID,
				}); err != nil {
					return persisted, err
				}
				persisted = next
			}
		}

		if !page.HasMore {
			break
		}
		if !page.Next.After(cur) {
			return persisted, fmt.Errorf("%s page did not advance past %s/%d",
				entity, cur.Since.Format(time.RFC3339), cur.AfterID)
		}
		cur = page.Next
		if err := sleepWithContext(ctx, e.opts.InterBatchDelay); err != nil {
			return persisted, err
		}
	}

	// Touch the checkpoint so the row exists after the first pass and its
	// UpdatedAt records the last completed sync even when nothing changed.
	touch := persisted
	if r.FullSnapshot {
		touch = Cursor{Since: passStart}
	}
	if err := e.cps.Upsert(ctx, CheckpointUpdate{
		DeviceID:     e.opts.DeviceID,
		EntityType:   entity,
		LastSyncTime: touch.Since,
		LastRecordID: touch.AfterID,
	}); err != nil {
		return persisted, err
	}
	return persisted, nil
}

// resolveCursor decides where a pass starts reading: the stored checkpoint
// when one exists (floored at the replay horizon), otherwise the default
// lookback window. Transactions narrow their first-pass window once the
// historical backfill has delivered everything older.
func (e *Engine) resolveCursor(ctx context.Context, cp *models.Checkpoint, r Registration, log *logrus.Entry) Cursor {
	if r.FullSnapshot {
		return Cursor{}
	}
	now := e.now().UTC()
	if cp == nil {
		window := e.opts.DefaultWindow
		if r.Extractor.Entity() == CollTransactions && e.bulkCompleted(ctx) {
			window = e.opts.NarrowWindow
		}
		return Cursor{Since: now.Add(-window)}
	}
	cur := Cursor{Since: cp.LastSyncTime, AfterID: cp.LastRecordID}
	if floor := now.Add(-e.opts.MaxReplay); cur.Since.Before(floor) {
		log.Warnf("%s checkpoint %s is older than the replay horizon, clamping to %s",
			r.Extractor.Entity(), cur.Since.Format(time.RFC3339), floor.Format(time.RFC3339))
		cur = Cursor{Since: floor}
	}
	return cur
}

func (e *Engine) bulkCompleted(ctx context.Context) bool {
	cp, err := e.cps.Get(ctx, e.opts.DeviceID, backfillEntity)
	if err != nil {
		return false
	}
	return cp.BulkCompleted()
}

// persistCursor picks the cursor that is safe to make durable after one
// page. An unsaturated page was read to the end, so everything through
// page.Next is acknowledged. A saturated page may have been cut mid-marker:
// only rows strictly below the page's final marker are complete, so the
// persisted pair stops at the last such row. When the whole page shares one
// marker nothing new is safe yet and the previous pair stands.
func persistCursor(page Page, prev Cursor) Cursor {
	if !page.HasMore {
		return page.Next
	}
	for i := len(page.Docs) - 1; i >= 0; i-- {
		if page.Docs[i].Marker().Before(page.Next.Since) {
			return Cursor{Since: page.Docs[i].Marker(), AfterID: page.Docs[i].DocID()}
		}
	}
	return prev
}

func (e *Engine) changedPage(ctx context.Context, r Registration, cur Cursor) (Page, error) {
	qctx, cancel := context.WithTimeout(ctx, r.QueryTimeout)
	defer cancel()
	return r.Extractor.ChangedPage(qctx, cur, r.BatchSize)
}

func (e *Engine) liveIDs(ctx context.Context, r Registration) (map[int64]struct{}, error) {
	qctx, cancel := context.WithTimeout(ctx, r.QueryTimeout)
	defer cancel()
	return r.Extractor.LiveIDs(qctx)
}

func (e *Engine) softDeletedIDs(ctx context.Context, r Registration, sw SoftDeleteSweeper, since time.Time) ([]int64, error) {
	qctx, cancel := context.WithTimeout(ctx, r.QueryTimeout)
	defer cancel()
	return sw.SoftDeletedIDs(qctx, since)
}

// RunBackfill copies the whole transaction history in week-sized windows of
// business dates, checkpointing after each window under its own stream so an
// interrupted run resumes at the last finished window instead of day one.
func (e *Engine) RunBackfill(ctx context.Context) error {
	src, r, ok := e.bulkSource()
	if !ok {
		return errors.New("no registered entity supports backfill")
	}

	cp, err := e.cps.Get(ctx, e.opts.DeviceID, backfillEntity)
	if err != nil {
		return err
	}
	if cp.BulkCompleted() {
		e.log.Info("bulk backfill already completed, nothing to do")
		return nil
	}

	minDate, maxDate, total, err := e.historyBounds(ctx, r, src)
	if err != nil {
		return err
	}
	if total == 0 {
		e.log.Info("no transactions to backfill")
		return e.completeBackfill(ctx)
	}

	start := truncateDay(minDate)
	if resume, resumed := cp.BulkResumeDate(); resumed {
		start = resume
		e.log.Infof("bulk backfill resuming from %s", start.Format("2006-01-02"))
	}

	e.reg.SetBulkSyncing(true, "starting")
	defer e.reg.SetBulkSyncing(false, "")

	windows := 0
	if !start.After(maxDate) {
		windows = int(maxDate.Sub(start)/backfillWindowSize) + 1
	}
	done, synced := 0, 0
	for from := start; !from.After(maxDate); from = from.Add(backfillWindowSize) {
		to := from.Add(backfillWindowSize)
		n, err := e.backfillWindow(ctx, r, src, from, to)
		if err != nil {
			return err
		}
		synced += n
		done++

		progress := fmt.Sprintf("window %d/%d (%s), %d transactions", done, windows, from.Format("2006-01-02"), synced)
		e.reg.SetBulkSyncing(true, progress)
		e.log.Infof("bulk backfill %s", progress)

		payload := models.BulkProcessedPayload(to)
		if err := e.cps.Upsert(ctx, CheckpointUpdate{
			DeviceID:     e.opts.DeviceID,
			EntityType:   backfillEntity,
			LastSyncTime: to,
			Payload:      &payload,
		}); err != nil {
			return err
		}
	}
	return e.completeBackfill(ctx)
}

func (e *Engine) backfillWindow(ctx context.Context, r Registration, src BulkSource, from, to time.Time) (int, error) {
	cur := Cursor{Since: from}
	synced := 0
	for {
		page, err := e.historyWindow(ctx, r, src, to, cur)
		if err != nil {
			return synced, err
		}
		if len(page.Docs) > 0 {
			sum, err := e.loader.UpsertBatch(ctx, CollTransactions, page.Docs)
			if err != nil {
				return synced, err
			}
			if sum.Failed >= len(page.Docs) {
				return synced, fmt.Errorf("all %d writes in backfill batch failed", len(page.Docs))
			}
			synced += len(page.Docs) - sum.Failed
		}
		if !page.HasMore {
			return synced, nil
		}
		if !page.Next.After(cur) {
			return synced, fmt.Errorf("backfill page did not advance past %s/%d",
				cur.Since.Format(time.RFC3339), cur.AfterID)
		}
		cur = page.Next
		if err := sleepWithContext(ctx, e.opts.InterBatchDelay); err != nil {
			return synced, err
		}
	}
}

func (e *Engine) completeBackfill(ctx context.Context) error {
	payload := models.BulkCompletedPayload
	if err := e.cps.Upsert(ctx, CheckpointUpdate{
		DeviceID:     e.opts.DeviceID,
		EntityType:   backfillEntity,
		LastSyncTime: e.now().UTC(),
		Payload:      &payload,
	}); err != nil {
		return err
	}
	e.log.Info("SUCCESS: bulk backfill completed")
	return nil
}

func (e *Engine) bulkSource() (BulkSource, Registration, bool) {
	for _, r := range e.regs {
		if src, ok := r.Extractor.(BulkSource); ok {
			return src, r, true
		}
	}
	return nil, Registration{}, false
}

func (e *Engine) historyBounds(ctx context.Context, r Registration, src BulkSource) (time.Time, time.Time, int64, error) {
	qctx, cancel := context.WithTimeout(ctx, r.QueryTimeout)
	defer cancel()
	return src.HistoryBounds(qctx)
}

func (e *Engine) historyWindow(ctx context.Context, r Registration, src BulkSource, to time.Time, cur Cursor) (Page, error) {
	qctx, cancel := context.WithTimeout(ctx, r.QueryTimeout)
	defer cancel()
	return src.HistoryWindow(qctx, to, cur, r.BatchSize)
}

// writeSyncLog records the pass outcome in the target store. A failure here
// only warns; the pass result stands either way.
func (e *Engine) writeSyncLog(ctx context.Context, runID string, res SyncResult, final Cursor, started time.Time) {
	last := final.Since
	if last.IsZero() {
		last = started
	}
	entry := &models.SyncLog{
		DeviceID:       e.opts.DeviceID,
		EntityType:     res.Entity,
		RunID:          runID,
		LastSyncTime:   last,
		IsSuccess:      res.Success,
		RecordsSynced:  res.Synced,
		DeletedRecords: res.Deleted,
		SyncedAt:       e.now().UTC(),
	}
	switch {
	case !res.Success:
		entry.ErrorMessage = res.Error
	case res.Skipped > 0:
		entry.ErrorMessage = fmt.Sprintf("%d rows skipped", res.Skipped)
	}

	// Outcomes are recorded even when the pass was cancelled.
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := e.loader.InsertSyncLog(lctx, entry); err != nil {
		e.log.Warnf("failed to record %s sync log: %v", res.Entity, err)
	}
}

func sortedIDs(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sleepWithContext pauses between pages without outliving the pass.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
