package metrics

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lockgraph/lockgraph/pkg/errors"
	"github.com/lockgraph/lockgraph/pkg/graphstore"
)

// MongoConfig selects the collection metrics documents are written to.
type MongoConfig struct {
	URI        string `toml:"uri" yaml:"uri"`
	Database   string `toml:"database" yaml:"database"`
	Collection string `toml:"collection" yaml:"collection"`
}

// MongoSink stores one document per row.
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// OpenMongoSink connects to MongoDB and pings the server.
func OpenMongoSink(ctx context.Context, cfg MongoConfig) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "mongo client for %s", cfg.URI)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "connect to mongo")
	}
	return &MongoSink{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Now,
	}, nil
}

// Document builds the stored form of row.
func Document(row Row, recordedAt time.Time) bson.D {
	metrics := make(bson.D, 0, len(graphstore.Battery))
	for _, q := range graphstore.Battery {
		metrics = append(metrics, bson.E{Key: string(q), Value: row.Value(q)})
	}
	return bson.D{
		{Key: "project", Value: row.Project},
		{Key: "metrics", Value: metrics},
		{Key: "run_id", Value: row.RunID},
		{Key: "recorded_at", Value: recordedAt.UTC()},
	}
}

// Append inserts row as a new document.
func (s *MongoSink) Append(ctx context.Context, row Row) error {
	if _, err := s.coll.InsertOne(ctx, Document(row, s.now())); err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "insert metrics for %s", row.Project)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
