// Package status holds the operator-facing state: a snapshot of the service
// and a bounded log ring. The UI reads snapshots and ring lines; the engine,
// scheduler, and probe write them.
package status

import (
	"sync"
	"time"
)

type ServerState string

const (
	ServerStopped ServerState = "Stopped"
	ServerRunning ServerState = "Running"
	ServerError   ServerState = "Error"
)

type ConnState string

const (
	ConnNotInitialized ConnState = "NotInitialized"
	ConnDisconnected   ConnState = "Disconnected"
	ConnConnected      ConnState = "Connected"
	ConnError          ConnState = "Error"
)

// Snapshot is a copyable view of the service state.
type Snapshot struct {
	ServerStatus     ServerState `json:"serverStatus"`
	ConnectionStatus ConnState   `json:"connectionStatus"`
	TargetStatus     ConnState   `json:"targetStatus"`
	IsSyncing        bool        `json:"isSyncing"`
	IsBulkSyncing    bool        `json:"isBulkSyncing"`
	AutoSyncEnabled  bool        `json:"autoSyncEnabled"`
	BulkSyncProgress string      `json:"bulkSyncProgress"`
	LastSyncAt       *time.Time  `json:"lastSyncAt,omitempty"`
}

// Registry guards the live snapshot. All setters take the lock briefly and
// never hold it across I/O.
type Registry struct {
	mu   sync.RWMutex
	snap Snapshot
}

func NewRegistry() *Registry {
	return &Registry{snap: Snapshot{
		ServerStatus:     ServerStopped,
		ConnectionStatus: ConnNotInitialized,
		TargetStatus:     ConnNotInitialized,
	}}
}

// Snapshot returns a copy of the current state.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

func (r *Registry) SetServer(s ServerState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.ServerStatus = s
}

func (r *Registry) SetSource(s ConnState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.ConnectionStatus = s
}

func (r *Registry) SetTarget(s ConnState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.TargetStatus = s
}

func (r *Registry) SetSyncing(active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.IsSyncing = active
	if !active {
		now := time.Now().UTC()
		r.snap.LastSyncAt = &now
	}
}

func (r *Registry) SetBulkSyncing(active bool, progress string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.IsBulkSyncing = active
	r.snap.BulkSyncProgress = progress
}

func (r *Registry) SetAutoSync(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.AutoSyncEnabled = enabled
}
