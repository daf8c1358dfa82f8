package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryCollection keeps documents in process. Documents go through the same bson
// codec as MongoCollection, so field names and filters behave alike.
type MemoryCollection[T any] struct {
	mu   sync.RWMutex
	name string
	docs []bson.M
}

func NewMemoryCollection[T any](name string) *MemoryCollection[T] {
	return &MemoryCollection[T]{name: name}
}

func (c *MemoryCollection[T]) Create(_ context.Context, doc T) (string, error) {
	m, err := toDocument(doc)
	if err != nil {
		return "", fmt.Errorf("encode %s document: %w", c.name, err)
	}

	id, _ := m["_id"].(string)
	if id == "" {
		id = primitive.NewObjectID().Hex()
	}
	m["_id"] = id

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(id) >= 0 {
		return "", fmt.Errorf("insert into %s: %w", c.name, ErrDuplicate)
	}
	c.docs = append(c.docs, m)
	return id, nil
}

func (c *MemoryCollection[T]) Get(_ context.Context, id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	i := c.indexOf(id)
	if i < 0 {
		return zero, ErrNotFound
	}
	return fromDocument[T](c.docs[i])
}

func (c *MemoryCollection[T]) All(ctx context.Context) ([]T, error) {
	return c.Find(ctx, Query{})
}

func (c *MemoryCollection[T]) Find(_ context.Context, q Query) ([]T, error) {
	var want interface{}
	if q.Field != "" {
		v, err := normalizeValue(q.Equals)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", c.name, err)
		}
		want = v
	}

	c.mu.RLock()
	matched := make([]bson.M, 0, len(c.docs))
	for _, d := range c.docs {
		if q.Field == "" || reflect.DeepEqual(d[q.Field], want) {
			matched = append(matched, d)
		}
	}
	c.mu.RUnlock()

	if q.SortBy != "" {
		sort.SliceStable(matched, func(i, j int) bool {
			cmp := compareValues(matched[i][q.SortBy], matched[j][q.SortBy])
			if q.Descending {
				return cmp > 0
			}
			return cmp < 0
		})
	}
	if q.Limit > 0 && int64(len(matched)) > q.Limit {
		matched = matched[:q.Limit]
	}

	out := make([]T, 0, len(matched))
	for _, d := range matched {
		doc, err := fromDocument[T](d)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.name, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *MemoryCollection[T]) Update(_ context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return ErrNoFields
	}
	set, err := toDocument(fields)
	if err != nil {
		return fmt.Errorf("encode %s update: %w", c.name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	updated := make(bson.M, len(c.docs[i])+len(set))
	for k, v := range c.docs[i] {
		updated[k] = v
	}
	for k, v := range set {
		updated[k] = v
	}
	c.docs[i] = updated
	return nil
}

func (c *MemoryCollection[T]) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	return nil
}

// indexOf requires c.mu.
func (c *MemoryCollection[T]) indexOf(id string) int {
	for i, d := range c.docs {
		if d["_id"] == id {
			return i
		}
	}
	return -1
}

func toDocument(v interface{}) (bson.M, error) {
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func fromDocument[T any](m bson.M) (T, error) {
	var doc T
	data, err := bson.Marshal(m)
	if err != nil {
		return doc, err
	}
	err = bson.Unmarshal(data, &doc)
	return doc, err
}

// normalizeValue converts v to the type it has after a bson round trip.
func normalizeValue(v interface{}) (interface{}, error) {
	m, err := toDocument(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return m["v"], nil
}

func compareValues(a, b interface{}) int {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case primitive.DateTime:
		if y, ok := b.(primitive.DateTime); ok {
			return compareOrdered(x, y)
		}
	case int32:
		if y, ok := b.(int32); ok {
			return compareOrdered(x, y)
		}
	case int64:
		if y, ok := b.(int64); ok {
			return compareOrdered(x, y)
		}
	case float64:
		if y, ok := b.(float64); ok {
			return compareOrdered(x, y)
		}
	}
	return 0
}

func compareOrdered[V int32 | int64 | float64 | primitive.DateTime](a, b V) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
