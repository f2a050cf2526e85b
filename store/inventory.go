package store

import (
	"context"
	"errors"
	"time"

	"laundromat/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StockLevels are the mutable fields a sync or an edit may overwrite.
type StockLevels struct {
	CurrentStock float64
	MaxStock     float64
	MinStock     float64
	Unit         string
	LastUpdated  time.Time
}

func LevelsOf(item models.InventoryItem) StockLevels {
	return StockLevels{
		CurrentStock: item.CurrentStock,
		MaxStock:     item.MaxStock,
		MinStock:     item.MinStock,
		Unit:         item.Unit,
		LastUpdated:  item.LastUpdated,
	}
}

type InventoryStore interface {
	List(ctx context.Context) ([]models.InventoryItem, error)
	LowStock(ctx context.Context) ([]models.InventoryItem, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.InventoryItem, error)
	// FindByName returns every item with this exact name, oldest first.
	FindByName(ctx context.Context, name string) ([]models.InventoryItem, error)
	Insert(ctx context.Context, item *models.InventoryItem) error
	UpdateLevels(ctx context.Context, id primitive.ObjectID, levels StockLevels) error
	Rename(ctx context.Context, id primitive.ObjectID, name string) error
	SetStock(ctx context.Context, id primitive.ObjectID, stock float64, at time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// DeleteByName removes every item with this name except keep (when non-zero).
	DeleteByName(ctx context.Context, name string, keep primitive.ObjectID) (int64, error)
}

type inventoryStore struct {
	coll *mongo.Collection
}

func NewInventoryStore(coll *mongo.Collection) InventoryStore {
	return &inventoryStore{coll: coll}
}

func (s *inventoryStore) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.InventoryItem, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []models.InventoryItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *inventoryStore) List(ctx context.Context) ([]models.InventoryItem, error) {
	return s.find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (s *inventoryStore) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	filter := bson.M{"$expr": bson.M{"$lte": bson.A{"$currentStock", "$minStock"}}}
	return s.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

func (s *inventoryStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *inventoryStore) FindByName(ctx context.Context, name string) ([]models.InventoryItem, error) {
	return s.find(ctx, bson.M{"name": name}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (s *inventoryStore) Insert(ctx context.Context, item *models.InventoryItem) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, item)
	return err
}

func (s *inventoryStore) updateByID(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *inventoryStore) UpdateLevels(ctx context.Context, id primitive.ObjectID, levels StockLevels) error {
	return s.updateByID(ctx, id, bson.M{
		"currentStock": levels.CurrentStock,
		"maxStock":     levels.MaxStock,
		"minStock":     levels.MinStock,
		"unit":         levels.Unit,
		"lastUpdated":  levels.LastUpdated,
	})
}

func (s *inventoryStore) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	return s.updateByID(ctx, id, bson.M{"name": name})
}

func (s *inventoryStore) SetStock(ctx context.Context, id primitive.ObjectID, stock float64, at time.Time) error {
	return s.updateByID(ctx, id, bson.M{"currentStock": stock, "lastUpdated": at})
}

func (s *inventoryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *inventoryStore) DeleteByName(ctx context.Context, name string, keep primitive.ObjectID) (int64, error) {
	filter := bson.M{"name": name}
	if !keep.IsZero() {
		filter["_id"] = bson.M{"$ne": keep}
	}
	res, err := s.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

type InventoryLogStore interface {
	Insert(ctx context.Context, log *models.InventoryLog) error
	List(ctx context.Context, itemID string) ([]models.InventoryLog, error)
}

type inventoryLogStore struct {
	coll *mongo.Collection
}

func NewInventoryLogStore(coll *mongo.Collection) InventoryLogStore {
	return &inventoryLogStore{coll: coll}
}

func (s *inventoryLogStore) Insert(ctx context.Context, log *models.InventoryLog) error {
	if log.ID.IsZero() {
		log.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, log)
	return err
}

func (s *inventoryLogStore) List(ctx context.Context, itemID string) ([]models.InventoryLog, error) {
	filter := bson.M{}
	if itemID != "" {
		filter["itemId"] = itemID
	}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	logs := []models.InventoryLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
