package models

import (
	"strings"
	"time"
)

// Checkpoint is one row of the SyncCheckpoints table: the durable cursor for
// a (deviceId, entityType) pair. LastSyncTime is the largest modification
// marker acknowledged written; LastRecordId breaks ties at that marker.
// Payload is opaque engine state (the bulk backfill keeps its progress there).
type Checkpoint struct {
	ID              int64
	DeviceID        string
	EntityType      string
	LastSyncTime    time.Time
	LastRecordID    int64
	LastDeleteCheck *time.Time
	Payload         *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Bulk backfill payload markers.
const (
	BulkCompletedPayload    = "COMPLETED"
	bulkProcessedDatePrefix = "ProcessedDate:"
	bulkProcessedDateLayout = "2006-01-02"
)

// BulkCompleted reports whether the checkpoint payload carries the backfill
// completion sentinel.
func (c *Checkpoint) BulkCompleted() bool {
	return c != nil && c.Payload != nil && *c.Payload == BulkCompletedPayload
}

// BulkResumeDate parses a "ProcessedDate:YYYY-MM-DD" payload into the day the
// backfill should resume from. Returns false when the payload is absent,
// completed, or unparseable.
func (c *Checkpoint) BulkResumeDate() (time.Time, bool) {
	if c == nil || c.Payload == nil {
		return time.Time{}, false
	}
	raw := *c.Payload
	if !strings.HasPrefix(raw, bulkProcessedDatePrefix) {
		return time.Time{}, false
	}
	t, err := time.Parse(bulkProcessedDateLayout, strings.TrimPrefix(raw, bulkProcessedDatePrefix))
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// BulkProcessedPayload formats the per-window progress payload.
func BulkProcessedPayload(day time.Time) string {
	return bulkProcessedDatePrefix + day.UTC().Format(bulkProcessedDateLayout)
}
