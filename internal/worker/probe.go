package worker

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Mousaahmad63636/DataSyncService/internal/status"
)

const probeTimeout = 5 * time.Second

// Probe pings both stores, records the outcome on the status registry and
// reports whether both answered.
func Probe(ctx context.Context, db *sql.DB, client *mongo.Client, reg *status.Registry, log *logrus.Entry) bool {
	ok := true

	sqlCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	err := db.PingContext(sqlCtx)
	cancel()
	if err != nil {
		reg.SetSource(status.ConnError)
		log.WithError(err).Error("sql server unreachable")
		ok = false
	} else {
		reg.SetSource(status.ConnConnected)
		log.Info("sql server reachable")
	}

	mongoCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	err = client.Ping(mongoCtx, readpref.Primary())
	cancel()
	if err != nil {
		reg.SetTarget(status.ConnError)
		log.WithError(err).Error("mongodb unreachable")
		ok = false
	} else {
		reg.SetTarget(status.ConnConnected)
		log.Info("mongodb reachable")
	}

	return ok
}
