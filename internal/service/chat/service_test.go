package chat_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"

	modelchat "github.com/zhouzirui/pill-reminder/backend/internal/model/chat"
	"github.com/zhouzirui/pill-reminder/backend/internal/model/medication"
	"github.com/zhouzirui/pill-reminder/backend/internal/service/ai"
	chat "github.com/zhouzirui/pill-reminder/backend/internal/service/chat"
	"github.com/zhouzirui/pill-reminder/backend/internal/store"
)

type sentPrompt struct {
	sessionID string
	system    string
	user      string
	cancelled bool
}

type stubGateway struct {
	mu     sync.Mutex
	reply  string
	err    error
	chunks []string
	calls  []sentPrompt
}

func (g *stubGateway) Send(ctx context.Context, sessionID, systemPrompt, userMessage string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, sentPrompt{
		sessionID: sessionID,
		system:    systemPrompt,
		user:      userMessage,
		cancelled: ctx.Err() != nil,
	})
	return g.reply, g.err
}

type streamingGateway struct {
	stubGateway
}

func (g *streamingGateway) Stream(ctx context.Context, sessionID, systemPrompt, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	if g.err != nil {
		return nil, g.err
	}
	msgs := make([]*schema.Message, 0, len(g.chunks))
	for _, c := range g.chunks {
		msgs = append(msgs, schema.AssistantMessage(c, nil))
	}
	return schema.StreamReaderFromArray(msgs), nil
}

type failingHistory struct {
	*store.MemoryStore
	appendErr error
}

func (f *failingHistory) AppendExchange(ctx context.Context, exchange modelchat.Exchange) error {
	return f.appendErr
}

func TestChatMintsSessionAndPersists(t *testing.T) {
	gw := &stubGateway{reply: "Open the Add tab."}
	history := store.NewMemoryStore()
	svc := chat.NewService(gw, history)
	ctx := context.Background()

	reply, err := svc.Chat(ctx, chat.Request{Message: "How do I add a medication?"})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	if reply.SessionID == "" || reply.ExchangeID == "" {
		t.Fatalf("expected minted ids, got %+v", reply)
	}
	if reply.Response != "Open the Add tab." {
		t.Fatalf("unexpected response: %q", reply.Response)
	}

	got, err := svc.History(ctx, reply.SessionID, 0)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 exchange, got %d", len(got))
	}
	if got[0].ID != reply.ExchangeID || got[0].UserMessage != "How do I add a medication?" || got[0].AIResponse != reply.Response {
		t.Fatalf("stored exchange mismatch: %+v", got[0])
	}
	if got[0].Category != modelchat.CategorySupport {
		t.Fatalf("expected support category, got %s", got[0].Category)
	}
	if gw.calls[0].sessionID != reply.SessionID {
		t.Fatalf("gateway saw session %q, reply has %q", gw.calls[0].sessionID, reply.SessionID)
	}
}

func TestChatReusesSessionAcrossCalls(t *testing.T) {
	gw := &stubGateway{reply: "ok"}
	svc := chat.NewService(gw, store.NewMemoryStore())
	ctx := context.Background()

	first, err := svc.Chat(ctx, chat.Request{Message: "one", SessionID: "s-1"})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	second, err := svc.Chat(ctx, chat.Request{Message: "two", SessionID: "s-1"})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	if first.SessionID != "s-1" || second.SessionID != "s-1" {
		t.Fatalf("session not reused: %s %s", first.SessionID, second.SessionID)
	}
	if first.ExchangeID == second.ExchangeID {
		t.Fatal("exchange ids must be unique")
	}

	got, _ := svc.History(ctx, "s-1", 0)
	if len(got) != 2 || got[0].UserMessage != "two" {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

func TestChatRejectsBlankMessage(t *testing.T) {
	gw := &stubGateway{reply: "never"}
	svc := chat.NewService(gw, store.NewMemoryStore())

	_, err := svc.Chat(context.Background(), chat.Request{Message: "   "})
	if !errors.Is(err, chat.ErrMessageRequired) {
		t.Fatalf("expected ErrMessageRequired, got %v", err)
	}
	if len(gw.calls) != 0 {
		t.Fatal("gateway must not be called for an invalid request")
	}
}

func TestChatRejectsInvalidPayload(t *testing.T) {
	svc := chat.NewService(&stubGateway{reply: "x"}, store.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Chat(ctx, chat.Request{
		Message:     "hi",
		Medications: []medication.Medication{{Name: "A", Days: []int{9}}},
	})
	if !errors.Is(err, chat.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for bad weekday, got %v", err)
	}

	_, err = svc.Chat(ctx, chat.Request{
		Message: "hi",
		Context: &medication.AdherenceContext{AdherenceRate: 140},
	})
	if !errors.Is(err, chat.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for bad rate, got %v", err)
	}
}

func TestChatProviderFailurePersistsNothing(t *testing.T) {
	gw := &stubGateway{err: errors.New("rate limited")}
	history := store.NewMemoryStore()
	svc := chat.NewService(gw, history)
	ctx := context.Background()

	_, err := svc.Chat(ctx, chat.Request{Message: "hi", SessionID: "s-err"})
	var providerErr *ai.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("provider cause lost: %v", err)
	}

	got, _ := history.ListExchanges(ctx, "s-err", 0)
	if len(got) != 0 {
		t.Fatalf("expected nothing persisted, got %d", len(got))
	}
}

func TestChatStorageFailureFailsCall(t *testing.T) {
	gw := &stubGateway{reply: "generated"}
	history := &failingHistory{MemoryStore: store.NewMemoryStore(), appendErr: errors.New("disk full")}
	svc := chat.NewService(gw, history)

	reply, err := svc.Chat(context.Background(), chat.Request{Message: "hi"})
	var storageErr *store.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if reply.Response != "" {
		t.Fatalf("reply must not leak on storage failure: %+v", reply)
	}
}

func TestChatCategoryRouting(t *testing.T) {
	gw := &stubGateway{reply: "ok"}
	svc := chat.NewService(gw, store.NewMemoryStore())
	ctx := context.Background()

	meds := []medication.Medication{{Name: "Metformin", Time: "08:00", Days: []int{1}}}
	if _, err := svc.Chat(ctx, chat.Request{Message: "tips", Category: "recommendation", Medications: meds}); err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	if _, err := svc.Chat(ctx, chat.Request{Message: "hey", Category: "billing", SessionID: "s-gen"}); err != nil {
		t.Fatalf("Chat err: %v", err)
	}

	if !strings.Contains(gw.calls[0].system, ai.ProhibitionClause) {
		t.Fatal("recommendation prompt must carry the prohibition clause")
	}
	if !strings.Contains(gw.calls[0].system, "Metformin at 08:00") {
		t.Fatal("recommendation prompt must list medications")
	}
	if strings.Contains(gw.calls[1].system, ai.ProhibitionClause) {
		t.Fatal("general prompt should not carry the recommendation clause")
	}

	got, _ := svc.History(ctx, "s-gen", 0)
	if len(got) != 1 || got[0].Category != modelchat.CategoryGeneral {
		t.Fatalf("unknown category should be stored as general, got %+v", got)
	}
}

func TestChatSurvivesCallerCancellation(t *testing.T) {
	gw := &stubGateway{reply: "still here"}
	svc := chat.NewService(gw, store.NewMemoryStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, err := svc.Chat(ctx, chat.Request{Message: "hi"})
	if err != nil {
		t.Fatalf("Chat err: %v", err)
	}
	if gw.calls[0].cancelled {
		t.Fatal("caller cancellation must not reach the provider call")
	}
	if reply.Response != "still here" {
		t.Fatalf("unexpected response: %q", reply.Response)
	}
}

func TestRecommendOmitsAdherenceContext(t *testing.T) {
	gw := &stubGateway{reply: "Take it with breakfast."}
	svc := chat.NewService(gw, store.NewMemoryStore())
	ctx := context.Background()

	reply, err := svc.Recommend(ctx, chat.RecommendationRequest{
		Medications: []medication.Medication{{Name: "Lisinopril", Time: "07:30", Days: []int{0, 1, 2, 3, 4, 5, 6}}},
	})
	if err != nil {
		t.Fatalf("Recommend err: %v", err)
	}

	sent := gw.calls[0]
	if strings.Contains(sent.system, "User context:") {
		t.Fatal("recommendations must not render adherence context")
	}
	if !strings.Contains(sent.user, "Medications: Lisinopril") || !strings.Contains(sent.user, "Total medications: 1") {
		t.Fatalf("unexpected recommendation prompt: %s", sent.user)
	}

	got, _ := svc.History(ctx, reply.SessionID, 0)
	if len(got) != 1 || got[0].Category != modelchat.CategoryRecommendation {
		t.Fatalf("expected one recommendation exchange, got %+v", got)
	}
	if got[0].UserMessage != sent.user {
		t.Fatal("stored user message should be the generated recommendation prompt")
	}
}

func TestChatStreamDeliversDeltasThenPersists(t *testing.T) {
	gw := &streamingGateway{stubGateway: stubGateway{chunks: []string{"Hello", ", ", "friend"}}}
	svc := chat.NewService(gw, store.NewMemoryStore())
	ctx := context.Background()

	var started string
	var deltas []string
	reply, err := svc.ChatStream(ctx, chat.Request{Message: "hi"},
		func(sessionID string) { started = sessionID },
		func(text string) { deltas = append(deltas, text) },
	)
	if err != nil {
		t.Fatalf("ChatStream err: %v", err)
	}
	if started == "" || started != reply.SessionID {
		t.Fatalf("start callback saw %q, reply has %q", started, reply.SessionID)
	}
	if strings.Join(deltas, "") != "Hello, friend" || reply.Response != "Hello, friend" {
		t.Fatalf("unexpected stream result: deltas=%v reply=%q", deltas, reply.Response)
	}

	got, _ := svc.History(ctx, reply.SessionID, 0)
	if len(got) != 1 || got[0].AIResponse != "Hello, friend" {
		t.Fatalf("streamed reply not persisted: %+v", got)
	}
}

func TestChatStreamFallsBackToSend(t *testing.T) {
	gw := &stubGateway{reply: "whole reply"}
	svc := chat.NewService(gw, store.NewMemoryStore())

	var deltas []string
	reply, err := svc.ChatStream(context.Background(), chat.Request{Message: "hi"}, nil, func(text string) {
		deltas = append(deltas, text)
	})
	if err != nil {
		t.Fatalf("ChatStream err: %v", err)
	}
	if len(deltas) != 1 || deltas[0] != "whole reply" || reply.Response != "whole reply" {
		t.Fatalf("unexpected fallback result: deltas=%v reply=%+v", deltas, reply)
	}
}

func TestChatStreamEmptyIsProviderError(t *testing.T) {
	gw := &streamingGateway{stubGateway: stubGateway{chunks: []string{" ", ""}}}
	history := store.NewMemoryStore()
	svc := chat.NewService(gw, history)

	_, err := svc.ChatStream(context.Background(), chat.Request{Message: "hi", SessionID: "s-empty"}, nil, nil)
	if !errors.Is(err, ai.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	var providerErr *ai.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	got, _ := history.ListExchanges(context.Background(), "s-empty", 0)
	if len(got) != 0 {
		t.Fatal("nothing should be persisted for an empty stream")
	}
}

func TestHistoryDefaultsAndClear(t *testing.T) {
	gw := &stubGateway{reply: "ok"}
	svc := chat.NewService(gw, store.NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < chat.DefaultHistoryLimit+5; i++ {
		if _, err := svc.Chat(ctx, chat.Request{Message: "m", SessionID: "s-many"}); err != nil {
			t.Fatalf("Chat err: %v", err)
		}
	}

	got, err := svc.History(ctx, "s-many", 0)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(got) != chat.DefaultHistoryLimit {
		t.Fatalf("expected default limit %d, got %d", chat.DefaultHistoryLimit, len(got))
	}

	got, _ = svc.History(ctx, "s-many", 3)
	if len(got) != 3 {
		t.Fatalf("expected 3, got %d", len(got))
	}

	deleted, err := svc.ClearHistory(ctx, "s-many")
	if err != nil {
		t.Fatalf("ClearHistory err: %v", err)
	}
	if deleted != int64(chat.DefaultHistoryLimit+5) {
		t.Fatalf("unexpected delete count %d", deleted)
	}

	deleted, err = svc.ClearHistory(ctx, "s-many")
	if err != nil || deleted != 0 {
		t.Fatalf("second clear should delete nothing, got %d, %v", deleted, err)
	}

	got, _ = svc.History(ctx, "s-many", 0)
	if len(got) != 0 {
		t.Fatalf("expected empty history, got %d", len(got))
	}
}

func TestHistoryUnknownSessionIsEmpty(t *testing.T) {
	svc := chat.NewService(&stubGateway{}, store.NewMemoryStore())

	got, err := svc.History(context.Background(), "nobody", 0)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}

	if _, err := svc.History(context.Background(), "", 0); !errors.Is(err, chat.ErrSessionRequired) {
		t.Fatalf("expected ErrSessionRequired, got %v", err)
	}
}

func TestGenerationWithoutGateway(t *testing.T) {
	history := store.NewMemoryStore()
	svc := chat.NewService(nil, history)
	ctx := context.Background()

	if svc.GenerationEnabled() {
		t.Fatal("expected generation disabled")
	}
	if _, err := svc.Chat(ctx, chat.Request{Message: "hi"}); !errors.Is(err, chat.ErrAIUnavailable) {
		t.Fatalf("expected ErrAIUnavailable, got %v", err)
	}
	if _, err := svc.Recommend(ctx, chat.RecommendationRequest{}); !errors.Is(err, chat.ErrAIUnavailable) {
		t.Fatalf("expected ErrAIUnavailable, got %v", err)
	}
	if _, err := svc.History(ctx, "s-1", 0); err != nil {
		t.Fatalf("history should work without a gateway: %v", err)
	}
}

func TestChatStreamWithholdsTextWhenStorageFails(t *testing.T) {
	gw := &streamingGateway{stubGateway: stubGateway{chunks: []string{"Take it ", "with food."}}}
	history := &failingHistory{MemoryStore: store.NewMemoryStore(), appendErr: errors.New("disk full")}
	svc := chat.NewService(gw, history)

	var deltas []string
	reply, err := svc.ChatStream(context.Background(), chat.Request{Message: "hi"}, nil, func(text string) {
		deltas = append(deltas, text)
	})
	var storageErr *store.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if len(deltas) != 0 || reply.Response != "" {
		t.Fatalf("generated text delivered despite storage failure: deltas=%v reply=%+v", deltas, reply)
	}
}
