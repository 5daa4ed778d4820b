package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moe-a1/MindDigits/internal/game"
	"github.com/moe-a1/MindDigits/internal/models"
)

// lobbyTTL is how long a lobby document survives after creation. Stale rooms
// are reaped server-side by Mongo's TTL monitor.
const lobbyTTL = 24 * time.Hour

// LobbyRepo stores whole lobby documents in the lobbies collection, keyed by
// the short lobby code. It implements game.LobbyRepository.
type LobbyRepo struct {
	collection *mongo.Collection
}

// NewLobbyRepo binds a repository to the lobbies collection of db.
func NewLobbyRepo(db *mongo.Database) *LobbyRepo {
	return &LobbyRepo{collection: db.Collection("lobbies")}
}

// EnsureIndexes creates the TTL index on createdAt so lobby documents expire
// 24 hours after creation.
func (r *LobbyRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(lobbyTTL / time.Second)),
	})
	if err != nil {
		return fmt.Errorf("create lobby TTL index: %w", err)
	}
	return nil
}

// Insert creates a new lobby document. An _id collision maps to
// game.ErrLobbyExists so the caller can retry with a fresh code.
func (r *LobbyRepo) Insert(ctx context.Context, l *models.Lobby) error {
	_, err := r.collection.InsertOne(ctx, l)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return game.ErrLobbyExists
		}
		return err
	}
	return nil
}

// Find returns the lobby with the given id, or (nil, nil) when absent.
func (r *LobbyRepo) Find(ctx context.Context, lobbyID string) (*models.Lobby, error) {
	var l models.Lobby
	err := r.collection.FindOne(ctx, bson.M{"_id": lobbyID}).Decode(&l)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

// Save replaces the lobby document wholesale, creating it if missing.
func (r *LobbyRepo) Save(ctx context.Context, l *models.Lobby) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": l.LobbyID}, l,
		options.Replace().SetUpsert(true))
	return err
}

// Delete removes the lobby document. Deleting an absent id is not an error.
func (r *LobbyRepo) Delete(ctx context.Context, lobbyID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lobbyID})
	return err
}
