package mapper

import (
	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Chat Mappers

func (m *ChatMapper) ChatToResponse(c *entity.Chat) *dto.ChatResponse {
	if c == nil {
		return nil
	}

	return &dto.ChatResponse{
		Id:         c.Id,
		ExternalId: c.ExternalId,
		Title:      c.Title,
		Model:      c.Model,
		CreatedAt:  c.CreatedAt,
	}
}

func (m *ChatMapper) ChatsToResponse(chats []*entity.Chat) []*dto.ChatResponse {
	result := make([]*dto.ChatResponse, 0, len(chats))
	for _, c := range chats {
		result = append(result, m.ChatToResponse(c))
	}
	return result
}

// Message Mappers

func (m *ChatMapper) MessageToResponse(msg *entity.Message) *dto.MessageResponse {
	if msg == nil {
		return nil
	}

	return &dto.MessageResponse{
		Id:        msg.Id,
		ChatId:    msg.ChatId,
		Role:      msg.Role,
		Content:   msg.Content,
		Author:    msg.Author,
		Model:     msg.Model,
		Timestamp: msg.Timestamp,
	}
}

func (m *ChatMapper) MessagesToResponse(messages []*entity.Message) []*dto.MessageResponse {
	result := make([]*dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		result = append(result, m.MessageToResponse(msg))
	}
	return result
}
