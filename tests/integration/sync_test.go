// Package integration holds the end-to-end sync test. It needs a reachable
// SQL Server with the POS schema (Categories, Products, SyncCheckpoints) and
// a MongoDB instance, and skips when the connection strings are not set.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Mousaahmad63636/DataSyncService/internal/etl"
	"github.com/Mousaahmad63636/DataSyncService/internal/status"
	"github.com/Mousaahmad63636/DataSyncService/pkg/database"
)

func TestIncrementalProductSync(t *testing.T) {
	sqlConn := os.Getenv("SQL_CONNECTION_STRING")
	mongoConn := os.Getenv("MONGO_CONNECTION_STRING")
	if sqlConn == "" || mongoConn == "" {
		t.Skip("set SQL_CONNECTION_STRING and MONGO_CONNECTION_STRING to run integration tests")
	}
	dbName := os.Getenv("MONGO_DATABASE")
	if dbName == "" {
		dbName = "posdata_integration"
	}

	sqlDB, err := database.ConnectSQL(sqlConn)
	if err != nil {
		t.Fatalf("Failed to connect to SQL: %v", err)
	}
	defer sqlDB.Close()

	mongoClient, err := database.ConnectMongo(mongoConn, 60*time.Second, 10*time.Second)
	if err != nil {
		t.Fatalf("Failed to connect to Mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	// A fresh device id per run keeps checkpoints from previous runs out.
	deviceID := fmt.Sprintf("it-%d", time.Now().UnixNano())

	categoryID, productID := insertTestRows(t, sqlDB)
	defer cleanupTestData(t, sqlDB, mongoClient, dbName, deviceID, categoryID, productID)

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	entry := logrus.NewEntry(log)

	engine := etl.NewEngine(etl.Options{
		DeviceID:      deviceID,
		DefaultWindow: 30 * 24 * time.Hour,
	}, etl.NewMongoLoader(mongoClient, dbName, entry),
		etl.NewSQLCheckpointStore(sqlDB, entry),
		status.NewRegistry(), entry)

	engine.Register(etl.Registration{Extractor: etl.NewCategoryExtractor(sqlDB, entry), QueryTimeout: time.Minute, FullSnapshot: true})
	engine.Register(etl.Registration{Extractor: etl.NewProductExtractor(sqlDB, entry), BatchSize: 100, QueryTimeout: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, entity := range []string{"categories", "products"} {
		res, err := engine.RunEntity(ctx, entity)
		if err != nil {
			t.Fatalf("RunEntity(%s): %v", entity, err)
		}
		if !res.Success {
			t.Fatalf("%s pass failed: %s", entity, res.Error)
		}
	}

	verifyProductDoc(t, mongoClient, dbName, productID)
	verifyCheckpoint(t, sqlDB, deviceID, productID)

	// A second pass with no source changes must extract nothing.
	res, err := engine.RunEntity(ctx, "products")
	if err != nil {
		t.Fatalf("second products pass: %v", err)
	}
	if res.Synced != 0 {
		t.Errorf("second pass re-synced %d products, want 0", res.Synced)
	}
}

func insertTestRows(t *testing.T, db *sql.DB) (categoryID, productID int64) {
	err := db.QueryRow(`
		INSERT INTO Categories (Name, Description, IsActive, Type)
		OUTPUT INSERTED.CategoryId
		VALUES (@p1, @p2, 1, @p3)`,
		"IT Category", "integration test", "Product",
	).Scan(&categoryID)
	if err != nil {
		t.Fatalf("Failed to insert test category: %v", err)
	}

	err = db.QueryRow(`
		INSERT INTO Products (Barcode, Name, Description, CategoryId, PurchasePrice,
		                      SalePrice, CurrentStock, MinimumStock, IsActive, CreatedAt, Speed)
		OUTPUT INSERTED.ProductId
		VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, 1, @p9, @p10)`,
		"IT-0001", "IT Product", "integration test", categoryID,
		"12.50", "19.99", "5", "1", time.Now().UTC(), "Fast",
	).Scan(&productID)
	if err != nil {
		t.Fatalf("Failed to insert test product: %v", err)
	}
	return categoryID, productID
}

func verifyProductDoc(t *testing.T, client *mongo.Client, dbName string, productID int64) {
	coll := client.Database(dbName).Collection("products")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var doc bson.M
	if err := coll.FindOne(ctx, bson.M{"_id": productID}).Decode(&doc); err != nil {
		t.Fatalf("Failed to find product %d in MongoDB: %v", productID, err)
	}

	if doc["name"] != "IT Product" {
		t.Errorf("Expected name 'IT Product', got %v", doc["name"])
	}
	if doc["categoryName"] != "IT Category" {
		t.Errorf("Expected embedded category name 'IT Category', got %v", doc["categoryName"])
	}
	if fmt.Sprint(doc["salePrice"]) != "19.99" {
		t.Errorf("Expected salePrice 19.99, got %v", doc["salePrice"])
	}
	if _, ok := doc["syncedAt"]; !ok {
		t.Error("Document is missing syncedAt")
	}
}

func verifyCheckpoint(t *testing.T, db *sql.DB, deviceID string, productID int64) {
	var lastSyncTime time.Time
	var lastRecordID int64
	err := db.QueryRow(`
		SELECT LastSyncTime, LastRecordId FROM SyncCheckpoints
		WHERE DeviceId = @p1 AND EntityType = @p2`,
		deviceID, "products",
	).Scan(&lastSyncTime, &lastRecordID)
	if err != nil {
		t.Fatalf("Failed to read products checkpoint: %v", err)
	}

	if lastRecordID != productID {
		t.Errorf("Expected checkpoint LastRecordId %d, got %d", productID, lastRecordID)
	}
	if lastSyncTime.IsZero() {
		t.Error("Checkpoint LastSyncTime was not advanced")
	}
}

func cleanupTestData(t *testing.T, sqlDB *sql.DB, mongoClient *mongo.Client, dbName, deviceID string, categoryID, productID int64) {
	sqlDB.Exec("DELETE FROM Products WHERE ProductId = @p1", productID)
	sqlDB.Exec("DELETE FROM Categories WHERE CategoryId = @p1", categoryID)
	sqlDB.Exec("DELETE FROM SyncCheckpoints WHERE DeviceId = @p1", deviceID)

	ctx := context.Background()
	mongoClient.Database(dbName).Collection("products").DeleteMany(ctx, bson.M{"_id": productID})
	mongoClient.Database(dbName).Collection("categories").DeleteMany(ctx, bson.M{"_id": categoryID})
	mongoClient.Database(dbName).Collection("sync_logs").DeleteMany(ctx, bson.M{"deviceId": deviceID})
}
