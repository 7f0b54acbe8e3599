package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SusheelSathyaraj/ClicomImport/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoDBClient struct {
	URI      string
	DBName   string
	Client   *mongo.Client
	Database *mongo.Database
}

// creating a new MongoDbClient using manual parameters
func NewMongoDBClient(uri, dbname string) *MongoDBClient {
	return &MongoDBClient{
		URI:    uri,
		DBName: dbname,
	}
}

// creating a new MongoDBClient using config, the database name is fixed
func NewMongoDBClientFromConfig(cfg *config.Config) *MongoDBClient {
	return NewMongoDBClient(cfg.Target.URI, config.TargetDatabase)
}

// connecting to mongoDB
func (m *MongoDBClient) Connect(ctx context.Context) error {
	clientOptions := options.Client().ApplyURI(m.URI)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m.Client = client
	m.Database = client.Database(m.DBName)
	return nil
}

// closing the mongodb connection
func (m *MongoDBClient) Close() error {
	if m.Client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := m.Client.Disconnect(ctx)
	m.Client = nil
	m.Database = nil
	return err
}

// InsertMany sends docs to the collection in a single ordered call; the
// collection is created by the server on first write. The driver refuses an
// empty slice without touching the server, which is reported as 0 inserted.
func (m *MongoDBClient) InsertMany(ctx context.Context, collection string, docs []interface{}) (int, error) {
	if m.Database == nil {
		return 0, fmt.Errorf("mongodb connection not established")
	}

	res, err := m.Database.Collection(collection).InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if errors.Is(err, mongo.ErrEmptySlice) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert into collection %s: %w", collection, err)
	}
	return len(res.InsertedIDs), nil
}
