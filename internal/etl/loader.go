package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Mousaahmad63636/DataSyncService/pkg/models"
)

// Target collection names. They are part of the contract with downstream
// readers and match the entity names used in checkpoints.
const (
	CollCategories       = "categories"
	CollProducts         = "products"
	CollCustomers        = "customers"
	CollBusinessSettings = "business_settings"
	CollEmployees        = "employees"
	CollExpenses         = "expenses"
	CollTransactions     = "transactions"
	CollSyncLogs         = "sync_logs"
)

// MongoLoader writes target documents with unordered bulk replaces keyed by
// _id. It never retries: failures bubble to the engine, which re-drives the
// window on the next pass by not advancing the checkpoint.
type MongoLoader struct {
	db  *mongo.Database
	log *logrus.Entry
}

func NewMongoLoader(client *mongo.Client, dbName string, log *logrus.Entry) *MongoLoader {
	return &MongoLoader{db: client.Database(dbName), log: log}
}

// UpsertBatch replaces each document in full (a stale field from an earlier
// write must not survive a shrinking document), keyed by _id and unordered so
// one bad row does not fail the batch. Row-level write errors are logged with
// the offending _id and counted in the summary; only batch-level failures
// return an error.
func (l *MongoLoader) UpsertBatch(ctx context.Context, collection string, docs []Document) (WriteSummary, error) {
	if len(docs) == 0 {
		return WriteSummary{}, nil
	}

	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(docs))
	for _, d := range docs {
		d.SetSyncedAt(now)
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": d.DocID()}).
			SetReplacement(d).
			SetUpsert(true))
	}

	res, err := l.db.Collection(collection).BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	summary, batchErr := summarizeBulk(res, err)
	if batchErr != nil {
		return summary, fmt.Errorf("bulk upsert %s: %w", collection, batchErr)
	}
	if summary.Failed > 0 {
		var bwe mongo.BulkWriteException
		if errors.As(err, &bwe) {
			for _, we := range bwe.WriteErrors {
				if we.Index >= 0 && we.Index < len(docs) {
					l.log.Errorf("upsert %s _id=%d failed: %s", collection, docs[we.Index].DocID(), we.Message)
				}
			}
		}
	}
	return summary, nil
}

// summarizeBulk folds a bulk write result and error into a summary. A
// BulkWriteException with only row-level errors is a partial success; a write
// concern error or any other error fails the whole batch.
func summarizeBulk(res *mongo.BulkWriteResult, err error) (WriteSummary, error) {
	var summary WriteSummary
	if res != nil {
		summary.Upserted = res.UpsertedCount
		summary.Modified = res.ModifiedCount
	}
	if err == nil {
		return summary, nil
	}
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) && bwe.WriteConcernError == nil {
		summary.Failed = len(bwe.WriteErrors)
		return summary, nil
	}
	return summary, err
}

func (l *MongoLoader) DeleteByIDs(ctx context.Context, collection string, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := l.db.Collection(collection).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("bulk delete %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

// PresentIDs projects the _id set of a collection for deletion reconciliation.
func (l *MongoLoader) PresentIDs(ctx context.Context, collection string) (map[int64]struct{}, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := l.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("project ids %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	ids := make(map[int64]struct{})
	for cursor.Next(ctx) {
		var row struct {
			ID int64 `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			l.log.Warnf("skipping non-numeric _id in %s: %v", collection, err)
			continue
		}
		ids[row.ID] = struct{}{}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("project ids %s: %w", collection, err)
	}
	return ids, nil
}

func (l *MongoLoader) InsertSyncLog(ctx context.Context, entry *models.SyncLog) error {
	if _, err := l.db.Collection(CollSyncLogs).InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert sync log: %w", err)
	}
	return nil
}
