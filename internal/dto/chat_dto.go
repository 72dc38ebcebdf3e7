package dto

import "time"

type ChatResponse struct {
	Id         int64     `json:"id"`
	ExternalId string    `json:"externalId"`
	Title      string    `json:"title"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"createdAt"`
}

type CreateChatRequest struct {
	Title string `json:"title" validate:"required,notblank,max=200"`
	Model string `json:"model" validate:"max=200"`
}

// UpdateChatRequest merges only the fields that are present in the body.
type UpdateChatRequest struct {
	Title *string `json:"title" validate:"omitempty,max=200"`
	Model *string `json:"model" validate:"omitempty,max=200"`
}

type MessageResponse struct {
	Id        int64     `json:"id"`
	ChatId    int64     `json:"chatId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,notblank"`
	Author  string `json:"author" validate:"required,notblank,max=100"`
	ChatId  int64  `json:"chatId" validate:"required,gt=0"`
	// Model is accepted for compatibility; the chat's stored model always wins.
	Model string `json:"model"`
}

// SendMessageResponse holds the user message and, unless Degraded, the assistant reply.
type SendMessageResponse struct {
	Messages []*MessageResponse `json:"messages"`
	Degraded bool               `json:"degraded"`
}

type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}
