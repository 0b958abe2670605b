package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/zhouzirui/pill-reminder/backend/internal/model/chat"
	"github.com/zhouzirui/pill-reminder/backend/internal/model/medication"
	"github.com/zhouzirui/pill-reminder/backend/internal/service/ai"
	"github.com/zhouzirui/pill-reminder/backend/internal/store"
)

// DefaultHistoryLimit applies when the caller does not ask for a specific page size.
const DefaultHistoryLimit = 20

var (
	ErrMessageRequired = errors.New("message is required")
	ErrSessionRequired = errors.New("session id is required")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrAIUnavailable   = errors.New("AI service is not configured")
)

// Gateway sends one composed prompt to the hosted model.
type Gateway interface {
	Send(ctx context.Context, sessionID, systemPrompt, userMessage string) (string, error)
}

// StreamGateway is a Gateway that can also return the reply incrementally.
type StreamGateway interface {
	Gateway
	Stream(ctx context.Context, sessionID, systemPrompt, userMessage string) (*schema.StreamReader[*schema.Message], error)
}

// Request is the body of a chat call.
type Request struct {
	Message         string                       `json:"message"`
	SessionID       string                       `json:"sessionId,omitempty"`
	Category        string                       `json:"category,omitempty"`
	Medications     []medication.Medication      `json:"medications,omitempty"`
	Context         *medication.AdherenceContext `json:"context,omitempty"`
	Recommendations []medication.Recommendation  `json:"recommendations,omitempty"`
	Insights        []medication.Insight         `json:"insights,omitempty"`
}

// Validate rejects requests the composer should never see.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return ErrMessageRequired
	}
	if err := validateMedications(r.Medications); err != nil {
		return err
	}
	if r.Context != nil {
		if err := r.Context.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	return nil
}

// RecommendationRequest is the body of a recommendations call.
type RecommendationRequest struct {
	Medications []medication.Medication `json:"medications"`
	SessionID   string                  `json:"sessionId,omitempty"`
}

func (r RecommendationRequest) Validate() error {
	return validateMedications(r.Medications)
}

// Reply is returned once the exchange has been generated and stored.
type Reply struct {
	Response   string `json:"response"`
	SessionID  string `json:"sessionId"`
	ExchangeID string `json:"exchangeId"`
}

// Service runs the compose → generate → persist sequence for each request.
type Service struct {
	gateway Gateway
	history store.HistoryStore
	now     func() time.Time
	newID   func() string
}

// NewService wires the service to its gateway and history store. A nil
// gateway leaves history available and makes generation calls fail with
// ErrAIUnavailable.
func NewService(gateway Gateway, history store.HistoryStore) *Service {
	return &Service{
		gateway: gateway,
		history: history,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// Chat answers a free-form message. A missing session id starts a new session.
func (s *Service) Chat(ctx context.Context, req Request) (Reply, error) {
	if s.gateway == nil {
		return Reply{}, ErrAIUnavailable
	}
	if err := req.Validate(); err != nil {
		return Reply{}, err
	}

	sessionID := s.resolveSession(req.SessionID)
	category := chat.ParseCategory(req.Category)
	prompt := ai.Compose(ai.PromptInput{
		Category:        category,
		Medications:     req.Medications,
		Context:         req.Context,
		Recommendations: req.Recommendations,
		Insights:        req.Insights,
		Message:         req.Message,
	})

	ctx = context.WithoutCancel(ctx)
	response, err := s.gateway.Send(ctx, sessionID, prompt.System, prompt.User)
	if err != nil {
		return Reply{}, fmt.Errorf("generate reply: %w", asProviderError(err))
	}

	return s.persist(ctx, sessionID, category, req.Message, response)
}

// Recommend asks for schedule tips. Adherence context is not forwarded on
// this path; only the medication list reaches the prompt.
func (s *Service) Recommend(ctx context.Context, req RecommendationRequest) (Reply, error) {
	if s.gateway == nil {
		return Reply{}, ErrAIUnavailable
	}
	if err := req.Validate(); err != nil {
		return Reply{}, err
	}

	sessionID := s.resolveSession(req.SessionID)
	userMessage := ai.RecommendationPrompt(req.Medications)
	prompt := ai.Compose(ai.PromptInput{
		Category:    chat.CategoryRecommendation,
		Medications: req.Medications,
		Message:     userMessage,
	})

	ctx = context.WithoutCancel(ctx)
	response, err := s.gateway.Send(ctx, sessionID, prompt.System, prompt.User)
	if err != nil {
		return Reply{}, fmt.Errorf("generate recommendations: %w", asProviderError(err))
	}

	return s.persist(ctx, sessionID, chat.CategoryRecommendation, userMessage, response)
}

// ChatStream behaves like Chat but reports the reply through onDelta in the
// chunks the model produced. Chunks are held back until the exchange has been
// stored, so a persistence failure delivers no generated text at all.
func (s *Service) ChatStream(ctx context.Context, req Request, onStart func(sessionID string), onDelta func(text string)) (Reply, error) {
	if s.gateway == nil {
		return Reply{}, ErrAIUnavailable
	}
	if err := req.Validate(); err != nil {
		return Reply{}, err
	}

	sessionID := s.resolveSession(req.SessionID)
	category := chat.ParseCategory(req.Category)
	prompt := ai.Compose(ai.PromptInput{
		Category:        category,
		Medications:     req.Medications,
		Context:         req.Context,
		Recommendations: req.Recommendations,
		Insights:        req.Insights,
		Message:         req.Message,
	})

	if onStart != nil {
		onStart(sessionID)
	}

	ctx = context.WithoutCancel(ctx)
	response, deltas, err := s.generateStreaming(ctx, sessionID, prompt)
	if err != nil {
		return Reply{}, fmt.Errorf("generate reply: %w", asProviderError(err))
	}

	reply, err := s.persist(ctx, sessionID, category, req.Message, response)
	if err != nil {
		return Reply{}, err
	}

	if onDelta != nil {
		for _, delta := range deltas {
			onDelta(delta)
		}
	}
	return reply, nil
}

func (s *Service) generateStreaming(ctx context.Context, sessionID string, prompt ai.Prompt) (string, []string, error) {
	streamer, ok := s.gateway.(StreamGateway)
	if !ok {
		response, err := s.gateway.Send(ctx, sessionID, prompt.System, prompt.User)
		if err != nil {
			return "", nil, err
		}
		return response, []string{response}, nil
	}

	stream, err := streamer.Stream(ctx, sessionID, prompt.System, prompt.User)
	if err != nil {
		return "", nil, err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	deltas := make([]string, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", nil, recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			deltas = append(deltas, chunk.Content)
		}
	}

	if len(chunks) == 0 {
		return "", nil, ai.ErrEmptyResponse
	}
	full, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(full.Content) == "" {
		return "", nil, ai.ErrEmptyResponse
	}
	return full.Content, deltas, nil
}

// History returns up to limit exchanges of a session, newest first.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]chat.Exchange, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	exchanges, err := s.history.ListExchanges(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", asStorageError("list exchanges", err))
	}
	return exchanges, nil
}

// ClearHistory deletes every exchange of a session and reports how many were removed.
func (s *Service) ClearHistory(ctx context.Context, sessionID string) (int64, error) {
	if sessionID == "" {
		return 0, ErrSessionRequired
	}

	deleted, err := s.history.DeleteExchanges(ctx, sessionID)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", asStorageError("delete exchanges", err))
	}

	log.Printf("[chat] cleared %d exchanges for session=%s", deleted, sessionID)
	return deleted, nil
}

func (s *Service) persist(ctx context.Context, sessionID string, category chat.Category, userMessage, response string) (Reply, error) {
	exchange := chat.Exchange{
		ID:          s.newID(),
		SessionID:   sessionID,
		UserMessage: userMessage,
		AIResponse:  response,
		Category:    category,
		CreatedAt:   s.now(),
	}

	if err := s.history.AppendExchange(ctx, exchange); err != nil {
		// The generated text is dropped: callers only ever see stored exchanges.
		log.Printf("[chat] discarding reply for session=%s, persistence failed: %v", sessionID, err)
		return Reply{}, fmt.Errorf("save exchange: %w", asStorageError("append exchange", err))
	}

	return Reply{
		Response:   response,
		SessionID:  sessionID,
		ExchangeID: exchange.ID,
	}, nil
}

// GenerationEnabled reports whether a model gateway is configured.
func (s *Service) GenerationEnabled() bool {
	return s.gateway != nil
}

func (s *Service) resolveSession(sessionID string) string {
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		return sessionID
	}
	return s.newID()
}

func validateMedications(meds []medication.Medication) error {
	for _, med := range meds {
		if err := med.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	return nil
}

func asProviderError(err error) error {
	var providerErr *ai.ProviderError
	if errors.As(err, &providerErr) {
		return err
	}
	return &ai.ProviderError{Err: err}
}

func asStorageError(op string, err error) error {
	var storageErr *store.StorageError
	if errors.As(err, &storageErr) {
		return err
	}
	return store.Wrap(op, err)
}
