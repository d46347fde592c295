package cli

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Mousaahmad63636/DataSyncService/internal/config"
	"github.com/Mousaahmad63636/DataSyncService/internal/etl"
	"github.com/Mousaahmad63636/DataSyncService/internal/status"
	"github.com/Mousaahmad63636/DataSyncService/pkg/database"
	"github.com/Mousaahmad63636/DataSyncService/pkg/logger"
)

// app holds everything a command needs after bootstrap: configuration, the
// shared logger and status surfaces, both store handles, and the engine with
// every entity registered.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	reg    *status.Registry
	ring   *status.Ring
	sqlDB  *sql.DB
	mongo  *mongo.Client
	engine *etl.Engine
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.Init(cfg.LogLevel, cfg.LogFile)
	ring := status.NewRing()
	log.AddHook(status.NewRingHook(ring))
	reg := status.NewRegistry()

	sqlDB, err := database.ConnectSQL(cfg.SQLConnString)
	if err != nil {
		reg.SetSource(status.ConnError)
		return nil, err
	}
	mongoClient, err := database.ConnectMongo(cfg.MongoConnString, cfg.SocketTimeout(), cfg.ServerSelectionTimeout())
	if err != nil {
		sqlDB.Close()
		reg.SetTarget(status.ConnError)
		return nil, err
	}
	reg.SetSource(status.ConnConnected)
	reg.SetTarget(status.ConnConnected)

	elog := log.WithField("component", "engine")
	loader := etl.NewMongoLoader(mongoClient, cfg.MongoDatabase, log.WithField("component", "loader"))
	checkpoints := etl.NewSQLCheckpointStore(sqlDB, log.WithField("component", "checkpoints"))

	engine := etl.NewEngine(etl.Options{
		DeviceID:        cfg.DeviceID,
		DefaultWindow:   cfg.DefaultWindow(),
		NarrowWindow:    cfg.NarrowWindow(),
		MaxReplay:       cfg.MaxReplay(),
		InterBatchDelay: cfg.InterBatchDelay(),
	}, loader, checkpoints, reg, elog)

	// Pass order: categories first so product documents embed current names;
	// transactions last, they are the largest stream.
	engine.Register(etl.Registration{Extractor: etl.NewCategoryExtractor(sqlDB, elog), QueryTimeout: 60 * time.Second, FullSnapshot: true})
	engine.Register(etl.Registration{Extractor: etl.NewProductExtractor(sqlDB, elog), BatchSize: cfg.BatchProducts, QueryTimeout: 120 * time.Second})
	engine.Register(etl.Registration{Extractor: etl.NewCustomerExtractor(sqlDB, elog), BatchSize: cfg.BatchCustomers, QueryTimeout: 120 * time.Second})
	engine.Register(etl.Registration{Extractor: etl.NewSettingExtractor(sqlDB, elog), QueryTimeout: 60 * time.Second})
	engine.Register(etl.Registration{Extractor: etl.NewEmployeeExtractor(sqlDB, elog), BatchSize: cfg.BatchEmployees, QueryTimeout: 120 * time.Second})
	engine.Register(etl.Registration{Extractor: etl.NewExpenseExtractor(sqlDB, elog), BatchSize: cfg.BatchExpenses, QueryTimeout: 120 * time.Second})
	engine.Register(etl.Registration{Extractor: etl.NewTransactionExtractor(sqlDB, elog), BatchSize: cfg.BatchTransactions, QueryTimeout: 300 * time.Second})

	return &app{
		cfg:    cfg,
		log:    log,
		reg:    reg,
		ring:   ring,
		sqlDB:  sqlDB,
		mongo:  mongoClient,
		engine: engine,
	}, nil
}

// Close releases both store connections.
func (a *app) Close() {
	if a.sqlDB != nil {
		a.sqlDB.Close()
	}
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.mongo.Disconnect(ctx)
	}
}
