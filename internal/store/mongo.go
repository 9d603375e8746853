package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/roastlens/roastlens/internal/types"
)

// MongoStore persists records in MongoDB collections.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

// NewMongoStore connects and pings the server before returning.
func NewMongoStore(uri, database string, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(database),
		logger: logger.With("component", "mongo_store"),
	}, nil
}

func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Record, error) {
	var rec Record
	err := s.db.Collection(collection).FindOne(ctx, idFilter(id)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &types.StoreError{Backend: "mongodb", Op: "get", Err: types.ErrNotFound}
	}
	if err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Op: "get", Err: err}
	}
	normalizeID(rec)
	return rec, nil
}

func (s *MongoStore) ListByField(ctx context.Context, collection, field string, value any) ([]Record, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{field: value})
	if err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Op: "list", Err: err}
	}
	defer cursor.Close(ctx)

	var out []Record
	for cursor.Next(ctx) {
		var rec Record
		if err := cursor.Decode(&rec); err != nil {
			return nil, &types.StoreError{Backend: "mongodb", Op: "list", Err: err}
		}
		normalizeID(rec)
		out = append(out, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, &types.StoreError{Backend: "mongodb", Op: "list", Err: err}
	}
	return out, nil
}

func (s *MongoStore) Insert(ctx context.Context, collection string, rec Record) (string, error) {
	doc := make(bson.M, len(rec))
	for k, v := range rec {
		if k == "id" || k == "_id" {
			continue
		}
		doc[k] = v
	}

	res, err := s.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return "", &types.StoreError{Backend: "mongodb", Op: "insert", Err: err}
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

func (s *MongoStore) Update(ctx context.Context, collection, id string, partial Record) error {
	if len(partial) == 0 {
		return nil
	}
	res, err := s.db.Collection(collection).UpdateOne(ctx, idFilter(id), bson.M{"$set": bson.M(partial)})
	if err != nil {
		return &types.StoreError{Backend: "mongodb", Op: "update", Err: err}
	}
	if res.MatchedCount == 0 {
		return &types.StoreError{Backend: "mongodb", Op: "update", Err: types.ErrNotFound}
	}
	return nil
}

func (s *MongoStore) DeleteWhere(ctx context.Context, collection, field string, value any) error {
	_, err := s.db.Collection(collection).DeleteMany(ctx, bson.M{field: value})
	if err != nil {
		return &types.StoreError{Backend: "mongodb", Op: "delete", Err: err}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	s.logger.Info("mongodb store closing")
	return s.client.Disconnect(ctx)
}

// normalizeID exposes Mongo's _id as a plain "id" string field.
func normalizeID(rec Record) {
	raw, ok := rec["_id"]
	if !ok {
		return
	}
	delete(rec, "_id")
	if oid, ok := raw.(primitive.ObjectID); ok {
		rec["id"] = oid.Hex()
		return
	}
	rec["id"] = fmt.Sprint(raw)
}
