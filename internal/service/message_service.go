package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/mapper"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/pkg/logger"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/repository/contract"
	"ai-chat-be/pkg/llm"
)

// IMessageService runs the message exchange for one inbound user message.
type IMessageService interface {
	SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
}

type messageService struct {
	store           contract.SessionStore
	llmProvider     llm.LLMProvider
	publisher       IPublisherService
	mapper          *mapper.ChatMapper
	logger          logger.ILogger
	providerTimeout time.Duration
}

func NewMessageService(
	store contract.SessionStore,
	llmProvider llm.LLMProvider,
	publisher IPublisherService,
	log logger.ILogger,
	providerTimeout time.Duration,
) IMessageService {
	return &messageService{
		store:           store,
		llmProvider:     llmProvider,
		publisher:       publisher,
		mapper:          mapper.NewChatMapper(),
		logger:          log,
		providerTimeout: providerTimeout,
	}
}

// SendMessage persists the user message, asks the provider for a reply and
// persists it. A provider failure degrades the result to the user message
// alone; it is never returned as an error.
func (s *messageService) SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	if req == nil {
		return nil, apperror.Validation("request body is required")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	// Store writes must finish even if the client goes away mid-exchange
	ctx = context.WithoutCancel(ctx)

	chat, err := s.store.GetChat(ctx, req.ChatId)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperror.NotFound(fmt.Sprintf("chat %d not found", req.ChatId))
	}

	if requested := strings.TrimSpace(req.Model); requested != "" && requested != chat.Model {
		s.logger.Debug("MessageService", "Ignoring client model, chat model is authoritative", map[string]interface{}{
			"chat_id":         chat.Id,
			"chat_model":      chat.Model,
			"requested_model": requested,
		})
	}

	userMessage, err := s.store.InsertMessage(ctx, entity.NewMessage{
		ChatId:  chat.Id,
		Role:    entity.MessageRoleUser,
		Content: req.Content,
		Author:  req.Author,
		Model:   chat.Model,
	})
	if err != nil {
		return nil, err
	}
	s.publishMessage(ctx, userMessage)

	history, err := s.buildContext(ctx, chat.Id, userMessage)
	if err != nil {
		// The user message is stored; losing the chat now only costs the reply
		s.logger.Warn("MessageService", "Could not load history, skipping reply", map[string]interface{}{
			"chat_id": chat.Id,
			"error":   err.Error(),
		})
		return s.degraded(userMessage), nil
	}

	reply, err := s.complete(ctx, chat.Model, history)
	if err != nil {
		s.logger.Warn("MessageService", "Completion failed, returning user message only", map[string]interface{}{
			"chat_id": chat.Id,
			"model":   chat.Model,
			"error":   err.Error(),
		})
		return s.degraded(userMessage), nil
	}

	assistantMessage, err := s.store.InsertMessage(ctx, entity.NewMessage{
		ChatId:  chat.Id,
		Role:    entity.MessageRoleAssistant,
		Content: reply,
		Author:  constant.AssistantAuthor,
		Model:   chat.Model,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Conflict(fmt.Sprintf("chat %d was deleted while the reply was generated", chat.Id))
		}
		return nil, err
	}
	s.publishMessage(ctx, assistantMessage)

	return &dto.SendMessageResponse{
		Messages: []*dto.MessageResponse{
			s.mapper.MessageToResponse(userMessage),
			s.mapper.MessageToResponse(assistantMessage),
		},
	}, nil
}

// buildContext returns the system instruction, the last few messages that
// precede current, and current itself, oldest first.
func (s *messageService) buildContext(ctx context.Context, chatId int64, current *entity.Message) ([]llm.Message, error) {
	stored, err := s.store.ListMessages(ctx, chatId)
	if err != nil {
		return nil, err
	}

	prior := make([]*entity.Message, 0, len(stored))
	for _, m := range stored {
		if m.Id < current.Id {
			prior = append(prior, m)
		}
	}
	if len(prior) > constant.ContextWindowSize {
		prior = prior[len(prior)-constant.ContextWindowSize:]
	}

	history := make([]llm.Message, 0, len(prior)+2)
	history = append(history, llm.Message{Role: constant.ChatMessageRoleSystem, Content: constant.SystemInstruction})
	for _, m := range prior {
		history = append(history, llm.Message{Role: m.Role, Content: m.Content})
	}
	history = append(history, llm.Message{Role: entity.MessageRoleUser, Content: current.Content})
	return history, nil
}

func (s *messageService) complete(ctx context.Context, model string, history []llm.Message) (string, error) {
	if s.providerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.providerTimeout)
		defer cancel()
	}

	reply, err := s.llmProvider.Chat(ctx, history,
		llm.WithModel(model),
		llm.WithTemperature(constant.ReplyTemperature),
		llm.WithMaxTokens(constant.ReplyMaxTokens),
	)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", &llm.ProviderError{Reason: "empty reply"}
	}
	return reply, nil
}

func (s *messageService) degraded(userMessage *entity.Message) *dto.SendMessageResponse {
	return &dto.SendMessageResponse{
		Messages: []*dto.MessageResponse{s.mapper.MessageToResponse(userMessage)},
		Degraded: true,
	}
}

func (s *messageService) publishMessage(ctx context.Context, msg *entity.Message) {
	publishSafely(ctx, s.publisher, s.logger, "MessageService", chatEvent(constant.EventMessageCreated, map[string]interface{}{
		"message": s.mapper.MessageToResponse(msg),
	}))
}
