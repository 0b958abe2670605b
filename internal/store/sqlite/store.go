// Package sqlite implements store.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zhouzirui/pill-reminder/backend/internal/model/chat"
	"github.com/zhouzirui/pill-reminder/backend/internal/model/status"
	"github.com/zhouzirui/pill-reminder/backend/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps chat history and status checks in a SQLite file.
type Store struct {
	db *sql.DB
}

// Open creates the database file (and its directory) when missing and
// prepares the schema.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	log.Printf("[store] sqlite database ready at %s", dbPath)
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS chat_history (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		user_message TEXT NOT NULL,
		ai_response TEXT NOT NULL,
		message_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chat_history_session ON chat_history(session_id, timestamp);

	CREATE TABLE IF NOT EXISTS status_checks (
		id TEXT PRIMARY KEY,
		client_name TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// AppendExchange inserts one exchange row.
func (s *Store) AppendExchange(ctx context.Context, exchange chat.Exchange) error {
	query := `
	INSERT INTO chat_history (id, session_id, user_message, ai_response, message_type, timestamp)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		exchange.ID, exchange.SessionID, exchange.UserMessage,
		exchange.AIResponse, string(exchange.Category), exchange.CreatedAt.UnixNano(),
	)
	if err != nil {
		log.Printf("[store] sqlite insert exchange session=%s failed: %v", exchange.SessionID, err)
		return store.Wrap("insert exchange", err)
	}
	return nil
}

// ListExchanges returns a session's exchanges, newest first.
func (s *Store) ListExchanges(ctx context.Context, sessionID string, limit int) ([]chat.Exchange, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded.
	}

	query := `
	SELECT id, session_id, user_message, ai_response, message_type, timestamp
	FROM chat_history
	WHERE session_id = ?
	ORDER BY timestamp DESC, rowid DESC
	LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, store.Wrap("query exchanges", err)
	}
	defer rows.Close()

	exchanges := make([]chat.Exchange, 0)
	for rows.Next() {
		var ex chat.Exchange
		var category string
		var createdAt int64
		if err := rows.Scan(&ex.ID, &ex.SessionID, &ex.UserMessage, &ex.AIResponse, &category, &createdAt); err != nil {
			return nil, store.Wrap("scan exchange row", err)
		}
		ex.Category = chat.Category(category)
		ex.CreatedAt = time.Unix(0, createdAt).UTC()
		exchanges = append(exchanges, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("iterate exchanges", err)
	}

	return exchanges, nil
}

// DeleteExchanges removes a session's exchanges.
func (s *Store) DeleteExchanges(ctx context.Context, sessionID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chat_history WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, store.Wrap("delete exchanges", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, store.Wrap("delete exchanges rows affected", err)
	}
	return deleted, nil
}

// CreateStatusCheck inserts a status check row.
func (s *Store) CreateStatusCheck(ctx context.Context, check status.Check) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO status_checks (id, client_name, timestamp) VALUES (?, ?, ?)`,
		check.ID, check.ClientName, check.Timestamp.UnixNano(),
	)
	return store.Wrap("insert status check", err)
}

// ListStatusChecks returns status checks in insertion order.
func (s *Store) ListStatusChecks(ctx context.Context, limit int) ([]status.Check, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, client_name, timestamp FROM status_checks ORDER BY rowid LIMIT ?`, limit)
	if err != nil {
		return nil, store.Wrap("query status checks", err)
	}
	defer rows.Close()

	checks := make([]status.Check, 0)
	for rows.Next() {
		var check status.Check
		var ts int64
		if err := rows.Scan(&check.ID, &check.ClientName, &ts); err != nil {
			return nil, store.Wrap("scan status check row", err)
		}
		check.Timestamp = time.Unix(0, ts).UTC()
		checks = append(checks, check)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("iterate status checks", err)
	}
	return checks, nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return store.Wrap("ping", s.db.PingContext(ctx))
}

// Close closes the database handle.
func (s *Store) Close(context.Context) error {
	return s.db.Close()
}
