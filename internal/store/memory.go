package store

import (
	"context"
	"sort"
	"sync"

	"github.com/zhouzirui/pill-reminder/backend/internal/model/chat"
	"github.com/zhouzirui/pill-reminder/backend/internal/model/status"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps everything in process memory. Used by tests and for
// running the server without a database.
type MemoryStore struct {
	mu        sync.RWMutex
	exchanges map[string][]chat.Exchange
	checks    []status.Check
}

// NewMemoryStore bootstraps an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		exchanges: make(map[string][]chat.Exchange),
	}
}

func (s *MemoryStore) AppendExchange(_ context.Context, exchange chat.Exchange) error {
	s.mu.Lock()
	s.exchanges[exchange.SessionID] = append(s.exchanges[exchange.SessionID], exchange)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListExchanges(_ context.Context, sessionID string, limit int) ([]chat.Exchange, error) {
	s.mu.RLock()
	stored := s.exchanges[sessionID]
	out := make([]chat.Exchange, 0, len(stored))
	// Reverse insertion order first so equal timestamps keep the later insert on top.
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) DeleteExchanges(_ context.Context, sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := int64(len(s.exchanges[sessionID]))
	delete(s.exchanges, sessionID)
	return deleted, nil
}

func (s *MemoryStore) CreateStatusCheck(_ context.Context, check status.Check) error {
	s.mu.Lock()
	s.checks = append(s.checks, check)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListStatusChecks(_ context.Context, limit int) ([]status.Check, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.checks)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]status.Check, n)
	copy(out, s.checks[:n])
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close(context.Context) error { return nil }
