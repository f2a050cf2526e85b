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

type SalesStore interface {
	List(ctx context.Context, from, to *time.Time) ([]models.SaleEntry, error)
	Summary(ctx context.Context, from, to time.Time) (models.SalesSummary, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.SaleEntry, error)
	Insert(ctx context.Context, sale *models.SaleEntry) error
	InsertMany(ctx context.Context, sales []models.SaleEntry) (BulkInsertResult, error)
	Update(ctx context.Context, id primitive.ObjectID, sale *models.SaleEntry) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ExistingClientKeys(ctx context.Context, keys []string) (map[string]bool, error)
}

type salesStore struct {
	coll *mongo.Collection
}

func NewSalesStore(coll *mongo.Collection) SalesStore {
	return &salesStore{coll: coll}
}

var saleSummaryFields = []string{"coin", "hopper", "soap", "vending", "dropOffAmount1", "dropOffAmount2"}

func dateRangeFilter(field string, from, to *time.Time) bson.M {
	filter := bson.M{}
	rng := bson.M{}
	if from != nil {
		rng["$gte"] = *from
	}
	if to != nil {
		rng["$lt"] = models.EndOfDay(*to)
	}
	if len(rng) > 0 {
		filter[field] = rng
	}
	return filter
}

func (s *salesStore) List(ctx context.Context, from, to *time.Time) ([]models.SaleEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := s.coll.Find(ctx, dateRangeFilter("date", from, to), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sales := []models.SaleEntry{}
	if err := cursor.All(ctx, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// Summary sums every monetary field over the inclusive date range. Values stored as
// strings or nulls by older clients are converted, unparseable ones count as 0.
func (s *salesStore) Summary(ctx context.Context, from, to time.Time) (models.SalesSummary, error) {
	group := bson.D{{Key: "_id", Value: nil}}
	project := bson.D{{Key: "_id", Value: 0}}
	for _, f := range saleSummaryFields {
		group = append(group, bson.E{Key: f, Value: bson.D{{Key: "$sum", Value: bson.D{{
			Key: "$convert",
			Value: bson.D{
				{Key: "input", Value: "$" + f},
				{Key: "to", Value: "double"},
				{Key: "onError", Value: 0.0},
				{Key: "onNull", Value: 0.0},
			},
		}}}}})
		project = append(project, bson.E{Key: f, Value: bson.D{{Key: "$round", Value: bson.A{"$" + f, 2}}}})
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: dateRangeFilter("date", &from, &to)}},
		bson.D{{Key: "$group", Value: group}},
		bson.D{{Key: "$project", Value: project}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return models.SalesSummary{}, err
	}
	defer cursor.Close(ctx)

	var result []models.SalesSummary
	if err := cursor.All(ctx, &result); err != nil {
		return models.SalesSummary{}, err
	}
	if len(result) > 0 {
		return result[0], nil
	}
	return models.SalesSummary{}, nil
}

func (s *salesStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.SaleEntry, error) {
	var sale models.SaleEntry
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&sale)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *salesStore) Insert(ctx context.Context, sale *models.SaleEntry) error {
	if sale.ID.IsZero() {
		sale.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, sale)
	return err
}

func (s *salesStore) InsertMany(ctx context.Context, sales []models.SaleEntry) (BulkInsertResult, error) {
	for i := range sales {
		if sales[i].ID.IsZero() {
			sales[i].ID = primitive.NewObjectID()
		}
	}
	return insertManyUnordered(ctx, s.coll, toDocs(sales))
}

func (s *salesStore) Update(ctx context.Context, id primitive.ObjectID, sale *models.SaleEntry) error {
	update := bson.M{"$set": bson.M{
		"date":           sale.Date,
		"coin":           sale.Coin,
		"hopper":         sale.Hopper,
		"soap":           sale.Soap,
		"vending":        sale.Vending,
		"dropOffAmount1": sale.DropOffAmount1,
		"dropOffCode":    sale.DropOffCode,
		"dropOffAmount2": sale.DropOffAmount2,
		"recordedBy":     sale.RecordedBy,
		"updatedAt":      sale.UpdatedAt,
	}}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *salesStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *salesStore) ExistingClientKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	return existingClientKeys(ctx, s.coll, keys)
}
