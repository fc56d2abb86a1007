package db

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB holds the client and the five collections the catalog uses.
type DB struct {
	Client      *mongo.Client
	Database    *mongo.Database
	Recipes     *mongo.Collection
	Ingredients *mongo.Collection
	Units       *mongo.Collection
	Users       *mongo.Collection
	Comments    *mongo.Collection
}

// Connect dials MongoDB, pings the deployment and binds the collections.
func Connect(ctx context.Context, uri, name string) (*DB, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	slog.Info("connected to mongodb", "database", name)

	db := client.Database(name)
	return &DB{
		Client:      client,
		Database:    db,
		Recipes:     db.Collection("recipes"),
		Ingredients: db.Collection("ingredients"),
		Units:       db.Collection("units"),
		Users:       db.Collection("users"),
		Comments:    db.Collection("comments"),
	}, nil
}

// EnsureIndexes creates the indexes lookups rely on. Safe to call repeatedly.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	models := map[*mongo.Collection][]mongo.IndexModel{
		d.Users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		d.Ingredients: {
			{Keys: bson.D{{Key: "name", Value: 1}}},
			{Keys: bson.D{{Key: "allergy", Value: 1}}},
		},
		d.Recipes: {
			{Keys: bson.D{{Key: "ingredients", Value: 1}}},
		},
	}
	for coll, idx := range models {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// OptionsFindOrdered lists documents in insertion order.
func OptionsFindOrdered() *options.FindOptions {
	opts := options.Find()
	opts.SetSort(bson.D{{Key: "_id", Value: 1}})
	return opts
}
