// Package store holds the per-category persistence adapters. Each store is a thin
// layer of create/read/update/delete calls over one MongoDB collection.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("document not found")

// InsertFailure is one document rejected by an unordered bulk insert.
type InsertFailure struct {
	Index int
	Code  int
	Err   string
}

// BulkInsertResult reports how many documents a bulk insert actually persisted.
type BulkInsertResult struct {
	Attempted int
	Inserted  int
	Failures  []InsertFailure
}

// insertManyUnordered inserts docs with ordered:false so one bad document does not
// stop the rest. Per-document write errors are returned in the result; err is only
// set when the call failed as a whole and nothing can be said about what was stored.
func insertManyUnordered(ctx context.Context, coll *mongo.Collection, docs []interface{}) (BulkInsertResult, error) {
	res := BulkInsertResult{Attempted: len(docs)}
	if len(docs) == 0 {
		return res, nil
	}

	_, err := coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		res.Inserted = len(docs)
		return res, nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return res, fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	for _, we := range bwe.WriteErrors {
		res.Failures = append(res.Failures, InsertFailure{
			Index: we.Index,
			Code:  we.Code,
			Err:   we.Message,
		})
	}
	res.Inserted = len(docs) - len(bwe.WriteErrors)
	if bwe.WriteConcernError != nil && len(bwe.WriteErrors) == 0 {
		return res, fmt.Errorf("insert into %s: %w", coll.Name(), err)
	}
	return res, nil
}

// existingClientKeys returns the subset of keys already stored in coll.
func existingClientKeys(ctx context.Context, coll *mongo.Collection, keys []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(keys) == 0 {
		return found, nil
	}

	cursor, err := coll.Find(ctx,
		bson.M{"clientKey": bson.M{"$in": keys}},
		options.Find().SetProjection(bson.M{"clientKey": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc struct {
			ClientKey string `bson:"clientKey"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		found[doc.ClientKey] = true
	}
	return found, cursor.Err()
}

func toDocs[T any](items []T) []interface{} {
	docs := make([]interface{}, len(items))
	for i := range items {
		docs[i] = items[i]
	}
	return docs
}
