package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"
)

// operators maps the query operators exposed at the model boundary to
// their Mongo counterparts. Unknown operators fall back to equality.
var operators = map[string]string{
	"==": "$eq",
	"!=": "$ne",
	"<":  "$lt",
	"<=": "$lte",
	">":  "$gt",
	">=": "$gte",
	"in": "$in",
}

// MongoCollection implements Collection on a mongo.Collection. An
// optional token-bucket limiter throttles round-trips client-side;
// populate resolution can fan out one fetch per array element, so the
// throttle protects the store from pathological documents.
type MongoCollection struct {
	col     *mongo.Collection
	limiter *rate.Limiter
}

// NewMongoCollection wraps col. rps <= 0 disables throttling.
func NewMongoCollection(col *mongo.Collection, rps float64, burst int) *MongoCollection {
	mc := &MongoCollection{col: col}
	if rps > 0 {
		mc.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return mc
}

func (c *MongoCollection) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *MongoCollection) FindByID(ctx context.Context, id string) (map[string]any, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	var doc bson.M
	err := c.col.FindOne(ctx, bson.M{"_id": idFilterValue(id)}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("find by id: %w", err)
	}
	return map[string]any(doc), nil
}

func (c *MongoCollection) Find(ctx context.Context, field, op string, value any) ([]map[string]any, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	cur, err := c.col.Find(ctx, filterFor(field, op, value))
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cur.Close(ctx)
	out := []map[string]any{}
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, map[string]any(doc))
	}
	return out, cur.Err()
}

func (c *MongoCollection) Insert(ctx context.Context, doc map[string]any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.col.InsertOne(ctx, bson.M(doc))
	return err
}

func (c *MongoCollection) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	update := updateDoc(fields)
	if len(update) == 0 {
		return nil
	}
	res, err := c.col.UpdateOne(ctx, bson.M{"_id": idFilterValue(id)}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *MongoCollection) Delete(ctx context.Context, id string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	res, err := c.col.DeleteOne(ctx, bson.M{"_id": idFilterValue(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// updateDoc splits a partial-update field map into $set and $unset
// clauses, routing delete-marker values into $unset.
func updateDoc(fields map[string]any) bson.M {
	set := bson.M{}
	unset := bson.M{}
	for k, v := range fields {
		if IsDelete(v) {
			unset[k] = ""
			continue
		}
		set[k] = v
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func filterFor(field, op string, value any) bson.M {
	mop, ok := operators[op]
	if !ok {
		mop = "$eq"
	}
	return bson.M{field: bson.M{mop: value}}
}

// idFilterValue matches documents whether their _id is a native
// ObjectID or an opaque string. Hex ids are queried as ObjectIDs.
func idFilterValue(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}
