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

type TimesheetFilter struct {
	EmployeeID string
	Status     string
	From       *time.Time
	To         *time.Time
}

type TimesheetStore interface {
	Find(ctx context.Context, f TimesheetFilter) ([]models.TimesheetEntry, error)
	// FindOpen returns the newest pending entry of the employee whose timeIn falls in
	// [after, before]. Zero bounds are open.
	FindOpen(ctx context.Context, employeeID string, after, before time.Time) (*models.TimesheetEntry, error)
	Insert(ctx context.Context, entry *models.TimesheetEntry) error
	InsertMany(ctx context.Context, entries []models.TimesheetEntry) (BulkInsertResult, error)
	// Close completes a still pending entry; ErrNotFound when it is gone or already closed.
	Close(ctx context.Context, id primitive.ObjectID, out time.Time, duration int) error
	ExistingClientKeys(ctx context.Context, keys []string) (map[string]bool, error)
}

type timesheetStore struct {
	coll *mongo.Collection
}

func NewTimesheetStore(coll *mongo.Collection) TimesheetStore {
	return &timesheetStore{coll: coll}
}

func (s *timesheetStore) Find(ctx context.Context, f TimesheetFilter) ([]models.TimesheetEntry, error) {
	filter := dateRangeFilter("date", f.From, f.To)
	if f.EmployeeID != "" {
		filter["employeeId"] = f.EmployeeID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "timeIn", Value: -1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []models.TimesheetEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *timesheetStore) FindOpen(ctx context.Context, employeeID string, after, before time.Time) (*models.TimesheetEntry, error) {
	filter := bson.M{"employeeId": employeeID, "status": models.TimesheetPending}
	window := bson.M{}
	if !after.IsZero() {
		window["$gte"] = after
	}
	if !before.IsZero() {
		window["$lte"] = before
	}
	if len(window) > 0 {
		filter["timeIn"] = window
	}

	var entry models.TimesheetEntry
	err := s.coll.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "timeIn", Value: -1}})).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *timesheetStore) Insert(ctx context.Context, entry *models.TimesheetEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, entry)
	return err
}

func (s *timesheetStore) InsertMany(ctx context.Context, entries []models.TimesheetEntry) (BulkInsertResult, error) {
	for i := range entries {
		if entries[i].ID.IsZero() {
			entries[i].ID = primitive.NewObjectID()
		}
	}
	return insertManyUnordered(ctx, s.coll, toDocs(entries))
}

func (s *timesheetStore) Close(ctx context.Context, id primitive.ObjectID, out time.Time, duration int) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.TimesheetPending},
		bson.M{"$set": bson.M{
			"timeOut":  out,
			"status":   models.TimesheetCompleted,
			"duration": duration,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *timesheetStore) ExistingClientKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	return existingClientKeys(ctx, s.coll, keys)
}
