package database

import (
	"context"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client is the global Mongo client. Connect it once at application startup.
var Client *mongo.Client

// DB is the application database handle, set by ConnectDB.
var DB *mongo.Database

// ConnectDB initializes the global Mongo client from MONGO_URI (default
// mongodb://localhost:27017) and MONGO_DATABASE (default "minddigits"),
// failing fast when the server is unreachable.
func ConnectDB() {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DATABASE")
	if dbName == "" {
		dbName = "minddigits"
	}

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("unable to create mongo client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatalf("mongo ping error: %v", err)
	}

	Client = client
	DB = client.Database(dbName)

	log.Printf("Connected to MongoDB at %s (db %s)", uri, dbName)
}

// Disconnect closes the global client. Safe to call when never connected.
func Disconnect(ctx context.Context) {
	if Client == nil {
		return
	}
	if err := Client.Disconnect(ctx); err != nil {
		log.Printf("mongo disconnect error: %v", err)
	}
}
