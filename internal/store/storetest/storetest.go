// Package storetest holds behaviour checks shared by every store backend.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/pill-reminder/backend/internal/model/chat"
	"github.com/zhouzirui/pill-reminder/backend/internal/model/status"
	"github.com/zhouzirui/pill-reminder/backend/internal/store"
)

// Run exercises a store.Store produced by newStore. Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("EmptySessionListsNothing", func(t *testing.T) {
		s := newStore(t)

		got, err := s.ListExchanges(context.Background(), "no-such-session", 20)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("ListIsNewestFirstAndLimited", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

		for i := 0; i < 5; i++ {
			require.NoError(t, s.AppendExchange(ctx, exchange("session-a", base.Add(time.Duration(i)*time.Minute), i)))
		}
		require.NoError(t, s.AppendExchange(ctx, exchange("session-b", base, 99)))

		got, err := s.ListExchanges(ctx, "session-a", 3)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "question 4", got[0].UserMessage)
		assert.Equal(t, "question 3", got[1].UserMessage)
		assert.Equal(t, "question 2", got[2].UserMessage)
		for _, ex := range got {
			assert.Equal(t, "session-a", ex.SessionID)
		}

		all, err := s.ListExchanges(ctx, "session-a", 0)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("RoundTripsFields", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		want := exchange("session-c", time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC), 1)
		want.Category = chat.CategoryRecommendation

		require.NoError(t, s.AppendExchange(ctx, want))

		got, err := s.ListExchanges(ctx, "session-c", 20)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, want.ID, got[0].ID)
		assert.Equal(t, want.UserMessage, got[0].UserMessage)
		assert.Equal(t, want.AIResponse, got[0].AIResponse)
		assert.Equal(t, want.Category, got[0].Category)
		assert.True(t, want.CreatedAt.Equal(got[0].CreatedAt), "created at %v != %v", got[0].CreatedAt, want.CreatedAt)
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		base := time.Date(2025, 3, 3, 7, 0, 0, 0, time.UTC)
		for i := 0; i < 2; i++ {
			require.NoError(t, s.AppendExchange(ctx, exchange("session-d", base.Add(time.Duration(i)*time.Second), i)))
		}
		require.NoError(t, s.AppendExchange(ctx, exchange("session-e", base, 7)))

		deleted, err := s.DeleteExchanges(ctx, "session-d")
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)

		deleted, err = s.DeleteExchanges(ctx, "session-d")
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)

		remaining, err := s.ListExchanges(ctx, "session-e", 20)
		require.NoError(t, err)
		assert.Len(t, remaining, 1)
	})

	t.Run("StatusChecks", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			require.NoError(t, s.CreateStatusCheck(ctx, status.Check{
				ID:         uuid.NewString(),
				ClientName: fmt.Sprintf("client-%d", i),
				Timestamp:  time.Date(2025, 3, 4, 10, i, 0, 0, time.UTC),
			}))
		}

		got, err := s.ListStatusChecks(ctx, 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)

		all, err := s.ListStatusChecks(ctx, 1000)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("Ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}

func exchange(sessionID string, at time.Time, n int) chat.Exchange {
	return chat.Exchange{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		UserMessage: fmt.Sprintf("question %d", n),
		AIResponse:  fmt.Sprintf("answer %d", n),
		Category:    chat.CategorySupport,
		CreatedAt:   at,
	}
}
