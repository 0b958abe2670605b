package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/pill-reminder/backend/internal/config"
)

// Service forwards composed prompts to the hosted chat model. It holds no
// per-conversation state; every call is a fresh request.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the chat model described by cfg and wraps it.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg)
}

// NewServiceWithModel wraps an existing chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, cfg config.AIConfig) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// Send asks the model for one reply. sessionID is the provider-side
// correlation key. Failures are returned as *ProviderError.
func (s *Service) Send(ctx context.Context, sessionID, systemPrompt, userMessage string) (string, error) {
	ctx = WithSessionID(ctx, sessionID)

	response, err := s.chain.Invoke(ctx, chainInput(systemPrompt, userMessage))
	if err != nil {
		log.Printf("[ai] generation failed for session=%s: %v", sessionID, err)
		return "", &ProviderError{Err: fmt.Errorf("failed to run AI chain: %w", err)}
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return "", &ProviderError{Err: ErrEmptyResponse}
	}

	log.Printf("[ai] generated response for session=%s, model=%s, length=%d", sessionID, s.cfg.Model, len(response.Content))
	return response.Content, nil
}

// Stream is the incremental variant of Send used by the SSE endpoint.
func (s *Service) Stream(ctx context.Context, sessionID, systemPrompt, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	ctx = WithSessionID(ctx, sessionID)

	stream, err := s.chain.Stream(ctx, chainInput(systemPrompt, userMessage))
	if err != nil {
		log.Printf("[ai] stream failed for session=%s: %v", sessionID, err)
		return nil, &ProviderError{Err: fmt.Errorf("failed to stream AI chain output: %w", err)}
	}
	return stream, nil
}

// Model returns the configured model name.
func (s *Service) Model() string {
	return s.cfg.Model
}

func chainInput(systemPrompt, userMessage string) map[string]any {
	return map[string]any{
		"system": systemPrompt,
		"query":  userMessage,
	}
}
