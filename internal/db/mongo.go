package db

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo connects to MongoDB using the MONGO_URI environment variable.
func ConnectMongo() (*mongo.Client, error) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// DatabaseName returns the database name, overridable via MONGO_DB.
func DatabaseName() string {
	name := os.Getenv("MONGO_DB")
	if name == "" {
		name = "mycar"
	}
	return name
}

// Collections bundles the store collections the sync engine works against.
type Collections struct {
	Tasks   TaskCollection
	History HistoryCollection
	Cars    CarCollection
}

// NewCollections wires the Mongo-backed collections for the given client.
func NewCollections(client *mongo.Client) *Collections {
	database := client.Database(DatabaseName())
	return &Collections{
		Tasks:   &MongoTaskCollection{Collection: database.Collection("maintenance_tasks")},
		History: &MongoHistoryCollection{Collection: database.Collection("maintenance_history")},
		Cars:    &MongoCarCollection{Collection: database.Collection("user_cars")},
	}
}
