package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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
	"ai-chat-be/pkg/events"
)

type IChatService interface {
	GetAll(ctx context.Context) ([]*dto.ChatResponse, error)
	Create(ctx context.Context, req *dto.CreateChatRequest) (*dto.ChatResponse, error)
	Show(ctx context.Context, ref string) (*dto.ChatResponse, error)
	Update(ctx context.Context, ref string, req *dto.UpdateChatRequest) (*dto.ChatResponse, error)
	Delete(ctx context.Context, ref string) error
	GetMessages(ctx context.Context, ref string, author string) ([]*dto.MessageResponse, error)
}

type chatService struct {
	store     contract.SessionStore
	publisher IPublisherService
	mapper    *mapper.ChatMapper
	logger    logger.ILogger
}

func NewChatService(store contract.SessionStore, publisher IPublisherService, log logger.ILogger) IChatService {
	return &chatService{
		store:     store,
		publisher: publisher,
		mapper:    mapper.NewChatMapper(),
		logger:    log,
	}
}

func (s *chatService) GetAll(ctx context.Context) ([]*dto.ChatResponse, error) {
	chats, err := s.store.ListChats(ctx)
	if err != nil {
		return nil, err
	}
	return s.mapper.ChatsToResponse(chats), nil
}

func (s *chatService) Create(ctx context.Context, req *dto.CreateChatRequest) (*dto.ChatResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	chat, err := s.store.CreateChat(ctx, req.Title, req.Model)
	if err != nil {
		return nil, err
	}

	res := s.mapper.ChatToResponse(chat)
	s.logger.Info("ChatService", "Chat created", map[string]interface{}{"chat_id": chat.Id, "model": chat.Model})
	publishSafely(ctx, s.publisher, s.logger, "ChatService", chatEvent(constant.EventChatCreated, map[string]interface{}{"chat": res}))

	return res, nil
}

func (s *chatService) Show(ctx context.Context, ref string) (*dto.ChatResponse, error) {
	chat, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.mapper.ChatToResponse(chat), nil
}

func (s *chatService) Update(ctx context.Context, ref string, req *dto.UpdateChatRequest) (*dto.ChatResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	chat, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateChat(ctx, chat.Id, entity.ChatPatch{Title: req.Title, Model: req.Model})
	if err != nil {
		return nil, raced(err, chat.Id)
	}

	res := s.mapper.ChatToResponse(updated)
	publishSafely(ctx, s.publisher, s.logger, "ChatService", chatEvent(constant.EventChatUpdated, map[string]interface{}{"chat": res}))

	return res, nil
}

func (s *chatService) Delete(ctx context.Context, ref string) error {
	chat, err := s.resolve(ctx, ref)
	if err != nil {
		return err
	}

	if err := s.store.DeleteChat(ctx, chat.Id); err != nil {
		return raced(err, chat.Id)
	}

	s.logger.Info("ChatService", "Chat deleted", map[string]interface{}{"chat_id": chat.Id})
	publishSafely(ctx, s.publisher, s.logger, "ChatService", chatEvent(constant.EventChatDeleted, map[string]interface{}{"chatId": chat.Id}))

	return nil
}

// GetMessages lists a chat's messages in order. A non-blank author keeps only
// the messages written by that author.
func (s *chatService) GetMessages(ctx context.Context, ref string, author string) ([]*dto.MessageResponse, error) {
	chat, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, chat.Id)
	if err != nil {
		return nil, err
	}

	if author = strings.TrimSpace(author); author != "" {
		filtered := make([]*entity.Message, 0, len(messages))
		for _, m := range messages {
			if m.Author == author {
				filtered = append(filtered, m)
			}
		}
		messages = filtered
	}
	return s.mapper.MessagesToResponse(messages), nil
}

// resolve accepts either the numeric chat id or the external identifier.
func (s *chatService) resolve(ctx context.Context, ref string) (*entity.Chat, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperror.Validation("chat reference is required")
	}

	var (
		chat *entity.Chat
		err  error
	)
	if id, parseErr := strconv.ParseInt(ref, 10, 64); parseErr == nil {
		chat, err = s.store.GetChat(ctx, id)
	} else {
		chat, err = s.store.GetChatByExternalId(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperror.NotFound(fmt.Sprintf("chat %s not found", ref))
	}
	return chat, nil
}

// raced reports a chat that disappeared between lookup and mutation.
func raced(err error, chatId int64) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.Conflict(fmt.Sprintf("chat %d was deleted concurrently", chatId))
	}
	return err
}

func chatEvent(eventType string, data map[string]interface{}) events.Event {
	return events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
