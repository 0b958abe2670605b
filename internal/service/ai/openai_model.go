package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/zhouzirui/pill-reminder/backend/internal/config"
)

var _ model.ChatModel = (*openAIChatModel)(nil)

// openAIChatModel adapts the OpenAI chat completions API to eino's ChatModel
// so it can sit in the same chain as the Ark model.
type openAIChatModel struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature *float32
	topP        *float32
}

func newOpenAIChatModel(cfg config.AIConfig, extra ...option.RequestOption) *openAIChatModel {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)

	return &openAIChatModel{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: toFloat32(cfg.Temperature),
		topP:        toFloat32(cfg.TopP),
	}
}

func (m *openAIChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	completion, err := m.client.Chat.Completions.New(ctx, m.buildParams(ctx, input, opts...))
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no choices in openai chat completion response")
	}

	return schema.AssistantMessage(completion.Choices[0].Message.Content, nil), nil
}

func (m *openAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, m.buildParams(ctx, input, opts...))
	reader, writer := schema.Pipe[*schema.Message](8)

	go func() {
		defer writer.Close()
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			if closed := writer.Send(&schema.Message{Role: schema.Assistant, Content: chunk.Choices[0].Delta.Content}, nil); closed {
				return
			}
		}
		if err := stream.Err(); err != nil {
			writer.Send(nil, fmt.Errorf("openai chat completion stream: %w", err))
		}
	}()

	return reader, nil
}

// BindTools is part of model.ChatModel; the assistant never calls tools.
func (m *openAIChatModel) BindTools([]*schema.ToolInfo) error {
	return errors.New("tool calling is not supported")
}

func (m *openAIChatModel) buildParams(ctx context.Context, input []*schema.Message, opts ...model.Option) openai.ChatCompletionNewParams {
	options := model.GetCommonOptions(&model.Options{
		Model:       &m.model,
		MaxTokens:   &m.maxTokens,
		Temperature: m.temperature,
		TopP:        m.topP,
	}, opts...)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(*options.Model),
		Messages: toOpenAIMessages(input),
	}
	if options.MaxTokens != nil && *options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(*options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(float64(*options.Temperature))
	}
	if options.TopP != nil {
		params.TopP = openai.Float(float64(*options.TopP))
	}
	if sessionID := SessionIDFrom(ctx); sessionID != "" {
		params.User = openai.String(sessionID)
	}

	return params
}

func toOpenAIMessages(input []*schema.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	return messages
}
