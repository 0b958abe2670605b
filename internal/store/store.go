// Package store defines persistence for chat history and status checks.
package store

import (
	"context"

	"github.com/zhouzirui/pill-reminder/backend/internal/model/chat"
	"github.com/zhouzirui/pill-reminder/backend/internal/model/status"
)

// HistoryStore is the append-only log of chat exchanges, grouped by session.
type HistoryStore interface {
	// AppendExchange inserts one exchange. There is no deduplication, so a
	// blind retry after an ambiguous failure may store the exchange twice.
	AppendExchange(ctx context.Context, exchange chat.Exchange) error

	// ListExchanges returns up to limit exchanges of a session, newest first.
	// A limit <= 0 means no limit. An unknown session yields an empty slice.
	ListExchanges(ctx context.Context, sessionID string, limit int) ([]chat.Exchange, error)

	// DeleteExchanges removes every exchange of a session and reports how many went away.
	DeleteExchanges(ctx context.Context, sessionID string) (int64, error)
}

// StatusStore keeps the status check records.
type StatusStore interface {
	CreateStatusCheck(ctx context.Context, check status.Check) error
	ListStatusChecks(ctx context.Context, limit int) ([]status.Check, error)
}

// Store is the full persistence surface used by the service.
type Store interface {
	HistoryStore
	StatusStore

	// Ping verifies connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
