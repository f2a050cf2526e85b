package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"laundromat/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EmployeeStore interface {
	List(ctx context.Context, status string) ([]models.Employee, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Employee, error)
	// FindByName matches the full name case-insensitively.
	FindByName(ctx context.Context, name string) (*models.Employee, error)
	Insert(ctx context.Context, emp *models.Employee) error
	Update(ctx context.Context, id primitive.ObjectID, upd models.UpdateEmployee, at time.Time) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) error
}

type employeeStore struct {
	coll *mongo.Collection
}

func NewEmployeeStore(coll *mongo.Collection) EmployeeStore {
	return &employeeStore{coll: coll}
}

func (s *employeeStore) List(ctx context.Context, status string) ([]models.Employee, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	employees := []models.Employee{}
	if err := cursor.All(ctx, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *employeeStore) findOne(ctx context.Context, filter bson.M) (*models.Employee, error) {
	var emp models.Employee
	err := s.coll.FindOne(ctx, filter).Decode(&emp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (s *employeeStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Employee, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *employeeStore) FindByName(ctx context.Context, name string) (*models.Employee, error) {
	pattern := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"}
	return s.findOne(ctx, bson.M{"name": pattern})
}

func (s *employeeStore) Insert(ctx context.Context, emp *models.Employee) error {
	if emp.ID.IsZero() {
		emp.ID = primitive.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, emp)
	return err
}

func (s *employeeStore) Update(ctx context.Context, id primitive.ObjectID, upd models.UpdateEmployee, at time.Time) error {
	set := bson.M{"updatedAt": at}
	if upd.Name != "" {
		set["name"] = upd.Name
	}
	if upd.ContactNumber != "" {
		set["contactNumber"] = upd.ContactNumber
	}
	if upd.Address != "" {
		set["address"] = upd.Address
	}
	if upd.Role != "" {
		set["role"] = upd.Role
	}
	if upd.Status != "" {
		set["status"] = upd.Status
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *employeeStore) SetStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) error {
	return s.Update(ctx, id, models.UpdateEmployee{Status: status}, at)
}
