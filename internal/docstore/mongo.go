package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection stores T documents in one MongoDB collection.
// T must map its id field to bson "_id,omitempty".
type MongoCollection[T any] struct {
	coll *mongo.Collection
}

func NewMongoCollection[T any](db *mongo.Database, name string) *MongoCollection[T] {
	return &MongoCollection[T]{coll: db.Collection(name)}
}

func (c *MongoCollection[T]) Create(ctx context.Context, doc T) (string, error) {
	res, err := c.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("insert into %s: %w", c.coll.Name(), ErrDuplicate)
	}
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", c.coll.Name(), err)
	}
	switch id := res.InsertedID.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	case string:
		return id, nil
	default:
		return fmt.Sprint(id), nil
	}
}

func (c *MongoCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var doc T
	err := c.coll.FindOne(ctx, idFilter(id)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return doc, ErrNotFound
	}
	if err != nil {
		return doc, fmt.Errorf("find %s %s: %w", c.coll.Name(), id, err)
	}
	return doc, nil
}

func (c *MongoCollection[T]) All(ctx context.Context) ([]T, error) {
	return c.Find(ctx, Query{})
}

func (c *MongoCollection[T]) Find(ctx context.Context, q Query) ([]T, error) {
	filter := bson.M{}
	if q.Field != "" {
		filter[q.Field] = q.Equals
	}

	opts := options.Find()
	if q.SortBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.SortBy, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cursor, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", c.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.coll.Name(), err)
	}
	return docs, nil
}

func (c *MongoCollection[T]) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return ErrNoFields
	}
	res, err := c.coll.UpdateOne(ctx, idFilter(id), bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update %s %s: %w", c.coll.Name(), id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *MongoCollection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", c.coll.Name(), id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// idFilter matches server-assigned ObjectIDs and caller-chosen string ids alike.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}
	return bson.M{"_id": id}
}
