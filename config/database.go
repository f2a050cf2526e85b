package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	SalesCollectionName         = "sales"
	TimesheetsCollectionName    = "timesheets"
	InventoryCollectionName     = "inventory"
	InventoryLogsCollectionName = "inventorylogs"
	EmployeesCollectionName     = "employees"
)

type Database struct {
	Client        *mongo.Client
	Sales         *mongo.Collection
	Timesheets    *mongo.Collection
	Inventory     *mongo.Collection
	InventoryLogs *mongo.Collection
	Employees     *mongo.Collection
}

func ConnectDatabase(ctx context.Context, uri, dbName string) (*Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := NewDatabase(client.Database(dbName))
	if err := db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	zap.L().Info("connected to MongoDB", zap.String("database", dbName))
	return db, nil
}

// NewDatabase binds the collection handles of an already connected database.
func NewDatabase(database *mongo.Database) *Database {
	return &Database{
		Client:        database.Client(),
		Sales:         database.Collection(SalesCollectionName),
		Timesheets:    database.Collection(TimesheetsCollectionName),
		Inventory:     database.Collection(InventoryCollectionName),
		InventoryLogs: database.Collection(InventoryLogsCollectionName),
		Employees:     database.Collection(EmployeesCollectionName),
	}
}

// EnsureIndexes creates the indexes queries rely on. clientKey is unique but sparse so
// that records from clients without idempotency keys still insert.
func (d *Database) EnsureIndexes(ctx context.Context) error {
	clientKey := mongo.IndexModel{
		Keys:    bson.D{{Key: "clientKey", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	}

	indexes := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{d.Sales, []mongo.IndexModel{
			{Keys: bson.D{{Key: "date", Value: -1}}},
			clientKey,
		}},
		{d.Timesheets, []mongo.IndexModel{
			{Keys: bson.D{{Key: "employeeId", Value: 1}, {Key: "status", Value: 1}, {Key: "timeIn", Value: -1}}},
			clientKey,
		}},
		{d.Inventory, []mongo.IndexModel{
			{Keys: bson.D{{Key: "name", Value: 1}}},
		}},
		{d.InventoryLogs, []mongo.IndexModel{
			{Keys: bson.D{{Key: "itemId", Value: 1}, {Key: "timestamp", Value: -1}}},
		}},
		{d.Employees, []mongo.IndexModel{
			{Keys: bson.D{{Key: "name", Value: 1}}},
		}},
	}

	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (d *Database) Ping(ctx context.Context) error {
	return d.Client.Ping(ctx, nil)
}

func (d *Database) Disconnect(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}
