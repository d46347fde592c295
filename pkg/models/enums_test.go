package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionTypeName(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "Sale"},
		{1, "Purchase"},
		{2, "Adjustment"},
		{99, "Unknown(99)"},
		{-1, "Unknown(-1)"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TransactionTypeName(c.in))
	}
}

func TestTransactionStatusName(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "Pending"},
		{1, "Completed"},
		{2, "Cancelled"},
		{7, "Unknown(7)"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TransactionStatusName(c.in))
	}
}

func TestCheckpointBulkPayload(t *testing.T) {
	completed := BulkCompletedPayload
	cp := &Checkpoint{Payload: &completed}
	assert.True(t, cp.BulkCompleted())
	_, ok := cp.BulkResumeDate()
	assert.False(t, ok)

	progress := "ProcessedDate:2024-03-15"
	cp = &Checkpoint{Payload: &progress}
	assert.False(t, cp.BulkCompleted())
	day, ok := cp.BulkResumeDate()
	assert.True(t, ok)
	assert.Equal(t, "2024-03-15", day.Format("2006-01-02"))

	assert.False(t, (&Checkpoint{}).BulkCompleted())
	var nilCp *Checkpoint
	assert.False(t, nilCp.BulkCompleted())
}

func TestMarkerFallsBackToCreatedAt(t *testing.T) {
	created := mustTime(t, "2024-01-10T00:00:00Z")
	p := &ProductDoc{ProductID: 7, CreatedAt: created}
	assert.Equal(t, created, p.Marker())

	updated := mustTime(t, "2024-02-01T00:00:00Z")
	p.UpdatedAt = &updated
	assert.Equal(t, updated, p.Marker())
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time %s: %v", s, err)
	}
	return ts
}
