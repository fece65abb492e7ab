package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	lerrors "github.com/matzehuels/lineage/pkg/errors"
)

// DefaultCollection is the collection settings documents live in.
const DefaultCollection = "user_settings"

// collection is the subset of *mongo.Collection used by [MongoStore].
type collection interface {
	FindOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter any, opts ...*options.FindOptions) (*mongo.Cursor, error)
	ReplaceOne(ctx context.Context, filter any, replacement any, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// MongoStore keeps one document per user, keyed by the user ID.
type MongoStore struct {
	client *mongo.Client
	coll   collection
	now    func() time.Time
}

// MongoConfig configures a MongoDB-backed store.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string // defaults to DefaultCollection
}

// NewMongoStore connects to MongoDB and pings the primary.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" || cfg.Database == "" {
		return nil, lerrors.New(lerrors.ErrCodeInvalidConfig, "mongo uri and database are required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		now:    time.Now,
	}, nil
}

// Get loads the user's document.
func (s *MongoStore) Get(ctx context.Context, user string) (Settings, error) {
	if err := lerrors.ValidateUserID(user); err != nil {
		return Settings{}, err
	}
	var out Settings
	err := s.coll.FindOne(ctx, bson.M{"_id": user}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Settings{}, notFound(user)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("mongo find %q: %w", user, err)
	}
	return out, nil
}

// Save upserts the user's document.
func (s *MongoStore) Save(ctx context.Context, in Settings) (Settings, error) {
	out, err := prepare(in, s.now())
	if err != nil {
		return Settings{}, err
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": out.User}, out, options.Replace().SetUpsert(true))
	if err != nil {
		return Settings{}, fmt.Errorf("mongo save %q: %w", out.User, err)
	}
	return out, nil
}

// Delete removes the user's document.
func (s *MongoStore) Delete(ctx context.Context, user string) (bool, error) {
	if err := lerrors.ValidateUserID(user); err != nil {
		return false, err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": user})
	if err != nil {
		return false, fmt.Errorf("mongo delete %q: %w", user, err)
	}
	return res.DeletedCount > 0, nil
}

// List returns every document sorted by user.
func (s *MongoStore) List(ctx context.Context) ([]Settings, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	var out []Settings
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
