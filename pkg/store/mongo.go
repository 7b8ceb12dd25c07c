package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoSnapshots stores named snapshots in a MongoDB collection, one
// document per name.
type MongoSnapshots struct {
	client *mongo.Client
	col    *mongo.Collection
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// snapshotDoc is the stored document shape.
type snapshotDoc struct {
	Name      string    `bson:"name"`
	Doc       []byte    `bson:"doc"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoSnapshots connects to MongoDB and verifies the connection.
// Snapshots are keyed by name; Save upserts.
func NewMongoSnapshots(ctx context.Context, cfg MongoConfig) (*MongoSnapshots, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoSnapshots{
		client: client,
		col:    client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Save upserts the document under the given name.
func (s *MongoSnapshots) Save(ctx context.Context, name string, doc []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"name": name},
		snapshotDoc{Name: name, Doc: doc, UpdatedAt: time.Now().UTC()},
		options.Replace().SetUpsert(true),
	)
	return err
}

// Load returns the document saved under the given name.
func (s *MongoSnapshots) Load(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	var out snapshotDoc
	err := s.col.FindOne(ctx, bson.M{"name": name}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return out.Doc, nil
}

// List returns all snapshot names in lexical order.
func (s *MongoSnapshots) List(ctx context.Context) ([]string, error) {
	values, err := s.col.Distinct(ctx, "name", bson.D{})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a snapshot. Deleting a missing snapshot is not an error.
func (s *MongoSnapshots) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := s.col.DeleteOne(ctx, bson.M{"name": name})
	return err
}

// Close disconnects the underlying client.
func (s *MongoSnapshots) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Snapshots = (*MongoSnapshots)(nil)
