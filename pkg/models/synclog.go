package models

import "time"

// SyncLog is the per-pass outcome record inserted (never upserted) into the
// sync_logs collection after every entity pass.
type SyncLog struct {
	DeviceID       string    `bson:"deviceId" json:"deviceId"`
	EntityType     string    `bson:"entityType" json:"entityType"`
	RunID          string    `bson:"runId" json:"runId"`
	LastSyncTime   time.Time `bson:"lastSyncTime" json:"lastSyncTime"`
	IsSuccess      bool      `bson:"isSuccess" json:"isSuccess"`
	RecordsSynced  int       `bson:"recordsSynced" json:"recordsSynced"`
	DeletedRecords int       `bson:"deletedRecords" json:"deletedRecords"`
	ErrorMessage   string    `bson:"errorMessage,omitempty" json:"errorMessage,omitempty"`
	SyncedAt       time.Time `bson:"syncedAt" json:"syncedAt"`
}
