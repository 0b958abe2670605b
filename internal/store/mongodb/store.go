// Package mongodb implements store.Store on MongoDB, using the same
// collections and field names the mobile app backend has always written.
package mongodb

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/zhouzirui/pill-reminder/backend/internal/model/chat"
	"github.com/zhouzirui/pill-reminder/backend/internal/model/status"
	"github.com/zhouzirui/pill-reminder/backend/internal/store"
)

const (
	chatHistoryCollection  = "chat_history"
	statusChecksCollection = "status_checks"
)

var _ store.Store = (*Store)(nil)

type exchangeDocument struct {
	ID          string    `bson:"id"`
	SessionID   string    `bson:"session_id"`
	UserMessage string    `bson:"user_message"`
	AIResponse  string    `bson:"ai_response"`
	MessageType string    `bson:"message_type"`
	Timestamp   time.Time `bson:"timestamp"`
}

type statusDocument struct {
	ID         string    `bson:"id"`
	ClientName string    `bson:"client_name"`
	Timestamp  time.Time `bson:"timestamp"`
}

// Store is a MongoDB-backed store.Store.
type Store struct {
	client   *mongo.Client
	history  *mongo.Collection
	statuses *mongo.Collection
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := New(client, dbName)
	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("[store] mongo index creation failed, continuing without: %v", err)
	}

	log.Printf("[store] mongo connected, database=%s", dbName)
	return s, nil
}

// New wraps an existing client.
func New(client *mongo.Client, dbName string) *Store {
	db := client.Database(dbName)
	return &Store{
		client:   client,
		history:  db.Collection(chatHistoryCollection),
		statuses: db.Collection(statusChecksCollection),
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.history.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}

func (s *Store) AppendExchange(ctx context.Context, exchange chat.Exchange) error {
	if _, err := s.history.InsertOne(ctx, toExchangeDocument(exchange)); err != nil {
		log.Printf("[store] mongo insert exchange session=%s failed: %v", exchange.SessionID, err)
		return store.Wrap("insert exchange", err)
	}
	return nil
}

func (s *Store) ListExchanges(ctx context.Context, sessionID string, limit int) ([]chat.Exchange, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.history.Find(ctx, sessionFilter(sessionID), opts)
	if err != nil {
		return nil, store.Wrap("find exchanges", err)
	}

	var docs []exchangeDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, store.Wrap("decode exchanges", err)
	}

	exchanges := make([]chat.Exchange, 0, len(docs))
	for _, doc := range docs {
		exchanges = append(exchanges, doc.toExchange())
	}
	return exchanges, nil
}

func (s *Store) DeleteExchanges(ctx context.Context, sessionID string) (int64, error) {
	result, err := s.history.DeleteMany(ctx, sessionFilter(sessionID))
	if err != nil {
		return 0, store.Wrap("delete exchanges", err)
	}
	return result.DeletedCount, nil
}

func (s *Store) CreateStatusCheck(ctx context.Context, check status.Check) error {
	_, err := s.statuses.InsertOne(ctx, statusDocument{
		ID:         check.ID,
		ClientName: check.ClientName,
		Timestamp:  check.Timestamp,
	})
	return store.Wrap("insert status check", err)
}

func (s *Store) ListStatusChecks(ctx context.Context, limit int) ([]status.Check, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.statuses.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, store.Wrap("find status checks", err)
	}

	var docs []statusDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, store.Wrap("decode status checks", err)
	}

	checks := make([]status.Check, 0, len(docs))
	for _, doc := range docs {
		checks = append(checks, status.Check{ID: doc.ID, ClientName: doc.ClientName, Timestamp: doc.Timestamp.UTC()})
	}
	return checks, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return store.Wrap("ping", s.client.Ping(ctx, nil))
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func sessionFilter(sessionID string) bson.D {
	return bson.D{{Key: "session_id", Value: sessionID}}
}

func toExchangeDocument(ex chat.Exchange) exchangeDocument {
	return exchangeDocument{
		ID:          ex.ID,
		SessionID:   ex.SessionID,
		UserMessage: ex.UserMessage,
		AIResponse:  ex.AIResponse,
		MessageType: string(ex.Category),
		Timestamp:   ex.CreatedAt,
	}
}

func (d exchangeDocument) toExchange() chat.Exchange {
	return chat.Exchange{
		ID:          d.ID,
		SessionID:   d.SessionID,
		UserMessage: d.UserMessage,
		AIResponse:  d.AIResponse,
		Category:    chat.Category(d.MessageType),
		CreatedAt:   d.Timestamp.UTC(),
	}
}
