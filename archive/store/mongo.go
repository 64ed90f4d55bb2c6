package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sweetpotato0/voyager/archive"
	"github.com/sweetpotato0/voyager/state"
)

// MongoStore implements archive.Store using MongoDB
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// MongoConfig holds MongoDB connection configuration
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// DefaultMongoConfig returns default MongoDB configuration
func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "voyager",
		Collection: "itineraries",
	}
}

// mongoDay and mongoEntry are the stored document shapes.
type mongoDay struct {
	Day         int    `bson:"day"`
	Plan        string `bson:"plan"`
	Detail      string `bson:"detail,omitempty"`
	Alternative bool   `bson:"alternative,omitempty"`
}

type mongoEntry struct {
	ID             string     `bson:"_id"`
	ConversationID string     `bson:"conversation_id"`
	PackageID      string     `bson:"package_id"`
	PackageName    string     `bson:"package_name,omitempty"`
	Place          string     `bson:"place"`
	Round          int        `bson:"round"`
	Days           []mongoDay `bson:"days"`
	CreatedAt      time.Time  `bson:"created_at"`
}

func toMongo(e *archive.Entry) mongoEntry {
	days := make([]mongoDay, len(e.Days))
	for i, d := range e.Days {
		days[i] = mongoDay{Day: d.Day, Plan: d.Plan, Detail: d.Detail, Alternative: d.Alternative}
	}
	return mongoEntry{
		ID:             e.ID,
		ConversationID: e.ConversationID,
		PackageID:      e.PackageID,
		PackageName:    e.PackageName,
		Place:          e.Place,
		Round:          e.Round,
		Days:           days,
		CreatedAt:      e.CreatedAt,
	}
}

func (m mongoEntry) entry() *archive.Entry {
	days := make([]state.DayEntry, len(m.Days))
	for i, d := range m.Days {
		days[i] = state.DayEntry{Day: d.Day, Plan: d.Plan, Detail: d.Detail, Alternative: d.Alternative}
	}
	return &archive.Entry{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		PackageID:      m.PackageID,
		PackageName:    m.PackageName,
		Place:          m.Place,
		Round:          m.Round,
		Days:           days,
		CreatedAt:      m.CreatedAt,
	}
}

// NewMongoStore connects to MongoDB and ensures the archive indexes
func NewMongoStore(ctx context.Context, config *MongoConfig) (*MongoStore, error) {
	if config == nil {
		config = DefaultMongoConfig()
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	store := &MongoStore{
		client:     client,
		collection: client.Database(config.Database).Collection(config.Collection),
	}
	if err := store.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return store, nil
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

// Add upserts an entry
func (s *MongoStore) Add(ctx context.Context, entry *archive.Entry) error {
	if err := archive.Prepare(entry); err != nil {
		return err
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": entry.ID}, toMongo(entry), opts); err != nil {
		return fmt.Errorf("failed to add itinerary to MongoDB: %w", err)
	}
	return nil
}

// List returns the entries of a conversation, newest first
func (s *MongoStore) List(ctx context.Context, conversationID string) ([]*archive.Entry, error) {
	filter := bson.M{}
	if conversationID != "" {
		filter = bson.M{"conversation_id": conversationID}
	}
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list itineraries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoEntry
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode itineraries: %w", err)
	}
	entries := make([]*archive.Entry, len(docs))
	for i, d := range docs {
		entries[i] = d.entry()
	}
	return entries, nil
}

// Count returns the number of archived itineraries
func (s *MongoStore) Count(ctx context.Context) (int, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count itineraries: %w", err)
	}
	return int(count), nil
}

// Clear removes all itineraries
func (s *MongoStore) Clear(ctx context.Context) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear itineraries: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Ping checks if MongoDB connection is alive
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}
