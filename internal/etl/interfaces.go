// Package etl implements the incremental replication core: per-entity
// extractors over the SQL source, a bulk-upsert loader into MongoDB, the
// checkpoint store that makes passes resumable, and the engine that drives
// one (device, entity) pass from checkpoint to checkpoint.
package etl

import (
	"context"
	"time"

	"github.com/Mousaahmad63636/DataSyncService/pkg/models"
)

// Document is one target-store record produced by an extractor. DocID becomes
// the Mongo _id; Marker is the row's modification marker, used to advance the
// checkpoint; SetSyncedAt is stamped by the loader right before the write.
type Document interface {
	DocID() int64
	Marker() time.Time
	SetSyncedAt(time.Time)
}

// Cursor addresses the first row not yet acknowledged: rows are consumed in
// ascending (marker, id) order and a page resumes at
// marker > Since OR (marker = Since AND id > AfterID).
type Cursor struct {
	Since   time.Time
	AfterID int64
}

// After reports whether c sorts strictly after other.
func (c Cursor) After(other Cursor) bool {
	if !c.Since.Equal(other.Since) {
		return c.Since.After(other.Since)
	}
	return c.AfterID > other.AfterID
}

// Page is one extractor batch.
type Page struct {
	Docs []Document

	// Next is the cursor after the last row the query scanned, including rows
	// dropped as malformed, so a poison row cannot wedge the page loop.
	Next Cursor

	// HasMore is true when the query saturated its limit; the caller should
	// request another page.
	HasMore bool

	// Skipped counts malformed rows dropped from this page (each is logged
	// with its primary key by the extractor).
	Skipped int
}

// Extractor is the per-entity source contract. Entity names the checkpoint
// stream and doubles as the target collection name. LiveIDs is invoked once
// per pass, not per batch; ChangedPage may be invoked many times.
type Extractor interface {
	Entity() string
	ChangedPage(ctx context.Context, cur Cursor, limit int) (Page, error)
	LiveIDs(ctx context.Context) (map[int64]struct{}, error)
}

// SoftDeleteSweeper is implemented by extractors whose rows carry an explicit
// deleted flag rather than dropping out of the live set. The engine runs the
// sweep before the insert phase of each pass.
type SoftDeleteSweeper interface {
	SoftDeletedIDs(ctx context.Context, since time.Time) ([]int64, error)
}

// BulkSource is implemented by the one extractor that supports the historical
// backfill walk. HistoryWindow pages rows whose business date falls in
// [from, to), ascending by (date, id) from cur.
type BulkSource interface {
	HistoryBounds(ctx context.Context) (min, max time.Time, total int64, err error)
	HistoryWindow(ctx context.Context, to time.Time, cur Cursor, limit int) (Page, error)
}

// WriteSummary reports one bulk upsert.
type WriteSummary struct {
	Upserted int64
	Modified int64
	Failed   int
}

// Loader writes documents into the target store. UpsertBatch is an unordered
// keyed write: single-row failures are counted in the summary, not returned
// as an error, so one bad row cannot fail a batch.
type Loader interface {
	UpsertBatch(ctx context.Context, collection string, docs []Document) (WriteSummary, error)
	DeleteByIDs(ctx context.Context, collection string, ids []int64) (int64, error)
	PresentIDs(ctx context.Context, collection string) (map[int64]struct{}, error)
	InsertSyncLog(ctx context.Context, entry *models.SyncLog) error
}

// CheckpointUpdate is one durable cursor advance. A nil Payload leaves the
// stored payload untouched.
type CheckpointUpdate struct {
	DeviceID     string
	EntityType   string
	LastSyncTime time.Time
	LastRecordID int64
	Payload      *string
}

// CheckpointStore is the durable per-(device, entity) cursor. Get returns
// (nil, nil) when no checkpoint exists; an error means the store itself is
// unreachable and the pass must abort. Upsert never regresses a stored
// (LastSyncTime, LastRecordID) pair and always bumps UpdatedAt.
type CheckpointStore interface {
	Get(ctx context.Context, deviceID, entityType string) (*models.Checkpoint, error)
	Upsert(ctx context.Context, up CheckpointUpdate) error
	SetDeleteCheck(ctx context.Context, deviceID, entityType string, checkedAt, fallbackSince time.Time) error
}

// SyncResult is the outcome of one entity pass.
type SyncResult struct {
	Entity  string
	Synced  int
	Deleted int
	Skipped int
	Elapsed time.Duration
	Success bool
	Error   string
}
