package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"musicthumb/internal/models"
)

const sudoersCollection = "sudoers"

// MongoStore keeps the sudoer document in a MongoDB collection as {"sudo": "sudo", "sudoers": [...]}.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ SudoerStore = (*MongoStore)(nil)

func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	const op = "storage.NewMongoStore"

	if dbName == "" {
		return nil, fmt.Errorf("%s: database_name is required for mongodb", op)
	}

	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(connectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(dbName).Collection(sudoersCollection),
	}, nil
}

func (m *MongoStore) Close() {
	m.client.Disconnect(context.Background())
}

func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoStore) FindSudoers(ctx context.Context) ([]int64, error) {
	const op = "storage.FindSudoers"

	var doc models.SudoerDocument
	err := m.coll.FindOne(ctx, bson.M{"sudo": models.SudoerKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return doc.UserIDs, nil
}

func (m *MongoStore) UpsertSudoers(ctx context.Context, ids []int64) error {
	const op = "storage.UpsertSudoers"

	if ids == nil {
		ids = []int64{}
	}
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"sudo": models.SudoerKey},
		bson.M{"$set": bson.M{"sudoers": ids}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Databases lists database names, for connectivity checks.
func (m *MongoStore) Databases(ctx context.Context) ([]string, error) {
	return m.client.ListDatabaseNames(ctx, bson.D{})
}
