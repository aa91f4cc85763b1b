// Package chatlog keeps assistant conversations for later review.
package chatlog

import (
	"context"
	"fmt"
	"time"

	"printshop/internal/ai"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionName = "chat_transcripts"

// Message is one user or model turn as the console sent it.
type Message struct {
	Role string `json:"role" bson:"role"`
	Text string `json:"text" bson:"text"`
}

// Transcript is one completed assistant request.
type Transcript struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	StaffID    int                 `json:"staff_id" bson:"staff_id"`
	Provider   string              `json:"provider" bson:"provider"`
	History    []Message           `json:"history" bson:"history"`
	Response   string              `json:"response" bson:"response"`
	ToolCalls  []ai.ToolCallRecord `json:"tool_calls" bson:"tool_calls"`
	Iterations int                 `json:"iterations" bson:"iterations"`
	Exhausted  bool                `json:"exhausted" bson:"exhausted"`
	CreatedAt  time.Time           `json:"created_at" bson:"created_at"`
}

// Store persists transcripts.
type Store interface {
	Save(ctx context.Context, t *Transcript) error
	// Recent returns a staff member's latest transcripts, newest first.
	Recent(ctx context.Context, staffID int, limit int) ([]Transcript, error)
}

// MongoStore keeps transcripts in the chat_transcripts collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect dials MongoDB, pings it and ensures the staff/created_at index.
func Connect(ctx context.Context, uri, database string) (*MongoStore, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(timeoutCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(timeoutCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(collectionName)
	_, err = coll.Indexes().CreateOne(timeoutCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "staff_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create transcript index: %w", err)
	}
	return &MongoStore{client: client, collection: coll}, nil
}

func (s *MongoStore) Save(ctx context.Context, t *Transcript) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	res, err := s.collection.InsertOne(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = id
	}
	return nil
}

func (s *MongoStore) Recent(ctx context.Context, staffID int, limit int) ([]Transcript, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := s.collection.Find(ctx, bson.M{"staff_id": staffID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer cursor.Close(ctx)

	out := []Transcript{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode transcripts: %w", err)
	}
	return out, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Nop drops transcripts. Used when MONGO_URI is not set.
type Nop struct{}

func (Nop) Save(context.Context, *Transcript) error { return nil }

func (Nop) Recent(context.Context, int, int) ([]Transcript, error) { return []Transcript{}, nil }
