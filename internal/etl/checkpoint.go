package etl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Mousaahmad63636/DataSyncService/pkg/models"
	"github.com/Mousaahmad63636/DataSyncService/pkg/utils"
)

// SQLCheckpointStore keeps cursors in the SyncCheckpoints table of the source
// database, so checkpoint reads and source reads share one connection pool.
type SQLCheckpointStore struct {
	db  *sql.DB
	log *logrus.Entry
}

func NewSQLCheckpointStore(db *sql.DB, log *logrus.Entry) *SQLCheckpointStore {
	return &SQLCheckpointStore{db: db, log: log}
}

func (s *SQLCheckpointStore) Get(ctx context.Context, deviceID, entityType string) (*models.Checkpoint, error) {
	const q = `
SELECT Id, DeviceId, EntityType, LastSyncTime, LastRecordId, LastDeleteCheck, CheckpointData, CreatedAt, UpdatedAt
FROM SyncCheckpoints
WHERE DeviceId = @p1 AND EntityType = @p2`

	var (
		cp          models.Checkpoint
		lastRecord  sql.NullInt64
		deleteCheck sql.NullTime
		payload     sql.NullString
	)
	err := s.db.QueryRowContext(ctx, q, deviceID, entityType).Scan(
		&cp.ID, &cp.DeviceID, &cp.EntityType, &cp.LastSyncTime,
		&lastRecord, &deleteCheck, &payload, &cp.CreatedAt, &cp.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.log.WithError(err).Errorf("checkpoint read failed for %s/%s", deviceID, entityType)
		return nil, fmt.Errorf("get checkpoint %s/%s: %w", deviceID, entityType, err)
	}

	cp.LastSyncTime = cp.LastSyncTime.UTC()
	if lastRecord.Valid {
		cp.LastRecordID = lastRecord.Int64
	}
	cp.LastDeleteCheck = utils.TimePtr(deleteCheck)
	if payload.Valid {
		p := payload.String
		cp.Payload = &p
	}
	return &cp, nil
}

// Upsert creates or advances a checkpoint atomically. The stored
// (LastSyncTime, LastRecordId) pair only moves forward: the engine is
// single-writer per pair, but a lost race must still never regress a cursor.
func (s *SQLCheckpointStore) Upsert(ctx context.Context, up CheckpointUpdate) error {
	const q = `
MERGE SyncCheckpoints WITH (HOLDLOCK) AS tgt
USING (SELECT @p1 AS DeviceId, @p2 AS EntityType) AS src
    ON tgt.DeviceId = src.DeviceId AND tgt.EntityType = src.EntityType
WHEN MATCHED THEN UPDATE SET
    LastSyncTime = CASE WHEN @p3 > tgt.LastSyncTime OR (@p3 = tgt.LastSyncTime AND @p4 > ISNULL(tgt.LastRecordId, 0))
                        THEN @p3 ELSE tgt.LastSyncTime END,
    LastRecordId = CASE WHEN @p3 > tgt.LastSyncTime OR (@p3 = tgt.LastSyncTime AND @p4 > ISNULL(tgt.LastRecordId, 0))
                        THEN @p4 ELSE tgt.LastRecordId END,
    CheckpointData = COALESCE(@p5, tgt.CheckpointData),
    UpdatedAt = SYSUTCDATETIME()
WHEN NOT MATCHED THEN
    INSERT (DeviceId, EntityType, LastSyncTime, LastRecordId, CheckpointData, CreatedAt, UpdatedAt)
    VALUES (@p1, @p2, @p3, @p4, @p5, SYSUTCDATETIME(), SYSUTCDATETIME());`

	var payload sql.NullString
	if up.Payload != nil {
		payload = sql.NullString{String: *up.Payload, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, q,
		up.DeviceID, up.EntityType, up.LastSyncTime.UTC(), up.LastRecordID, payload)
	if err != nil {
		return fmt.Errorf("upsert checkpoint %s/%s: %w", up.DeviceID, up.EntityType, err)
	}
	return nil
}

// SetDeleteCheck records the lower bound of the next soft-delete sweep. When
// no checkpoint row exists yet it creates one seeded with fallbackSince so the
// sweep bound never dangles without a cursor.
func (s *SQLCheckpointStore) SetDeleteCheck(ctx context.Context, deviceID, entityType string, checkedAt, fallbackSince time.Time) error {
	const q = `
MERGE SyncCheckpoints WITH (HOLDLOCK) AS tgt
USING (SELECT @p1 AS DeviceId, @p2 AS EntityType) AS src
    ON tgt.DeviceId = src.DeviceId AND tgt.EntityType = src.EntityType
WHEN MATCHED THEN UPDATE SET
    LastDeleteCheck = @p3,
    UpdatedAt = SYSUTCDATETIME()
WHEN NOT MATCHED THEN
    INSERT (DeviceId, EntityType, LastSyncTime, LastRecordId, LastDeleteCheck, CreatedAt, UpdatedAt)
    VALUES (@p1, @p2, @p4, 0, @p3, SYSUTCDATETIME(), SYSUTCDATETIME());`

	_, err := s.db.ExecContext(ctx, q, deviceID, entityType, checkedAt.UTC(), fallbackSince.UTC())
	if err != nil {
		return fmt.Errorf("set delete check %s/%s: %w", deviceID, entityType, err)
	}
	return nil
}
