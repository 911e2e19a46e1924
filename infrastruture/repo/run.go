package repo

import (
	"context"
	"errors"

	"github.com/beka-birhanu/reeborg-api/game"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RunRepo stores finished explorations in MongoDB.
type RunRepo struct {
	collection *mongo.Collection
}

// NewRunRepo creates a new RunRepo on the given database and collection.
func NewRunRepo(client *mongo.Client, dbName, collectionName string) *RunRepo {
	return &RunRepo{
		collection: client.Database(dbName).Collection(collectionName),
	}
}

// Save inserts run. Run IDs are never reused, so there is no update path.
func (r *RunRepo) Save(ctx context.Context, run *game.RunRecord) error {
	if _, err := r.collection.InsertOne(ctx, run); err != nil {
		return errors.New("unexpected error: " + err.Error())
	}
	return nil
}

// ByOwner returns the newest runs of owner.
func (r *RunRepo) ByOwner(ctx context.Context, owner uuid.UUID, limit int) ([]*game.RunRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}
	defer cursor.Close(ctx)

	runs := make([]*game.RunRecord, 0)
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, errors.New("unexpected error: " + err.Error())
	}
	return runs, nil
}
