package store

import (
	"context"
	"testing"
	"time"

	"laundromat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func TestSalesStore_InsertManyReportsPartialSuccess(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("all inserted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		s := NewSalesStore(mt.Coll)

		sales := []models.SaleEntry{{Coin: 10}, {Coin: 20}}
		res, err := s.InsertMany(context.Background(), sales)
		require.NoError(mt, err)
		assert.Equal(mt, 2, res.Inserted)
		assert.Equal(mt, 2, res.Attempted)
		assert.Empty(mt, res.Failures)
		assert.False(mt, sales[0].ID.IsZero())
	})

	mt.Run("duplicate key on one document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   1,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))
		s := NewSalesStore(mt.Coll)

		res, err := s.InsertMany(context.Background(), []models.SaleEntry{{}, {}, {}})
		require.NoError(mt, err)
		assert.Equal(mt, 3, res.Attempted)
		assert.Equal(mt, 2, res.Inserted)
		require.Len(mt, res.Failures, 1)
		assert.Equal(mt, 1, res.Failures[0].Index)
		assert.Equal(mt, 11000, res.Failures[0].Code)
	})

	mt.Run("empty batch skips the server", func(mt *mtest.T) {
		s := NewSalesStore(mt.Coll)
		res, err := s.InsertMany(context.Background(), nil)
		require.NoError(mt, err)
		assert.Zero(mt, res.Inserted)
	})
}

func TestSalesStore_Summary(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	mt.Run("no sales in range", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))
		s := NewSalesStore(mt.Coll)

		sum, err := s.Summary(context.Background(), from, to)
		require.NoError(mt, err)
		assert.Equal(mt, models.SalesSummary{}, sum)
	})

	mt.Run("totals decoded", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "coin", Value: 120.5},
			{Key: "hopper", Value: 30.0},
			{Key: "soap", Value: 12.25},
			{Key: "vending", Value: 8.0},
			{Key: "dropOffAmount1", Value: 45.0},
			{Key: "dropOffAmount2", Value: 0.0},
		}))
		s := NewSalesStore(mt.Coll)

		sum, err := s.Summary(context.Background(), from, to)
		require.NoError(mt, err)
		assert.Equal(mt, 120.5, sum.Coin)
		assert.Equal(mt, 12.25, sum.Soap)
		assert.InDelta(mt, 215.75, sum.Total(), 0.001)
	})
}

func TestSalesStore_FindByIDNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))
		s := NewSalesStore(mt.Coll)

		_, err := s.FindByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		s := NewSalesStore(mt.Coll)

		err := s.Delete(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestSalesStore_ExistingClientKeys(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns stored keys", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "clientKey", Value: "k1"}},
		))
		s := NewSalesStore(mt.Coll)

		found, err := s.ExistingClientKeys(context.Background(), []string{"k1", "k2"})
		require.NoError(mt, err)
		assert.True(mt, found["k1"])
		assert.False(mt, found["k2"])
	})
}

func TestTimesheetStore_Close(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	out := time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC)

	mt.Run("pending entry closed", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		s := NewTimesheetStore(mt.Coll)

		assert.NoError(mt, s.Close(context.Background(), primitive.NewObjectID(), out, 480))
	})

	mt.Run("already completed", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		s := NewTimesheetStore(mt.Coll)

		err := s.Close(context.Background(), primitive.NewObjectID(), out, 480)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestTimesheetStore_FindOpen(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	mt.Run("found", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "employeeId", Value: "e1"},
			{Key: "timeIn", Value: in},
			{Key: "status", Value: models.TimesheetPending},
		}))
		s := NewTimesheetStore(mt.Coll)

		entry, err := s.FindOpen(context.Background(), "e1", in.Add(-time.Hour), time.Time{})
		require.NoError(mt, err)
		assert.Equal(mt, id, entry.ID)
		assert.True(mt, entry.TimeIn.Equal(in))
	})

	mt.Run("none", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))
		s := NewTimesheetStore(mt.Coll)

		_, err := s.FindOpen(context.Background(), "e1", time.Time{}, time.Time{})
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestInventoryStore_FindAndDeleteByName(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("same-named items oldest first", func(mt *mtest.T) {
		a, b := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: a}, {Key: "name", Value: "Soap"}, {Key: "currentStock", Value: 4.0}},
			bson.D{{Key: "_id", Value: b}, {Key: "name", Value: "Soap"}, {Key: "currentStock", Value: 9.0}},
		))
		s := NewInventoryStore(mt.Coll)

		items, err := s.FindByName(context.Background(), "Soap")
		require.NoError(mt, err)
		require.Len(mt, items, 2)
		assert.Equal(mt, a, items[0].ID)
	})

	mt.Run("delete duplicates", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))
		s := NewInventoryStore(mt.Coll)

		n, err := s.DeleteByName(context.Background(), "Soap", primitive.NewObjectID())
		require.NoError(mt, err)
		assert.EqualValues(mt, 2, n)
	})

	mt.Run("update unknown id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		s := NewInventoryStore(mt.Coll)

		err := s.UpdateLevels(context.Background(), primitive.NewObjectID(), StockLevels{CurrentStock: 3})
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestEmployeeStore_FindByName(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Ana Cruz"},
			{Key: "status", Value: models.EmployeeActive},
		}))
		s := NewEmployeeStore(mt.Coll)

		emp, err := s.FindByName(context.Background(), "ana cruz")
		require.NoError(mt, err)
		assert.Equal(mt, id, emp.ID)
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))
		s := NewEmployeeStore(mt.Coll)

		_, err := s.FindByName(context.Background(), "nobody")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}
