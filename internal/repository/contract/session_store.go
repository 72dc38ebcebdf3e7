package contract

import (
	"context"

	"ai-chat-be/internal/entity"
)

// SessionStore owns every Chat and Message record. Lookups that miss return
// (nil, nil); mutations on a missing chat return an apperror.ErrNotFound.
// Returned records are copies and may be modified freely by the caller.
type SessionStore interface {
	CreateChat(ctx context.Context, title, model string) (*entity.Chat, error)
	GetChat(ctx context.Context, id int64) (*entity.Chat, error)
	GetChatByExternalId(ctx context.Context, externalId string) (*entity.Chat, error)
	ListChats(ctx context.Context) ([]*entity.Chat, error)
	UpdateChat(ctx context.Context, id int64, patch entity.ChatPatch) (*entity.Chat, error)
	DeleteChat(ctx context.Context, id int64) error

	ListMessages(ctx context.Context, chatId int64) ([]*entity.Message, error)
	InsertMessage(ctx context.Context, message entity.NewMessage) (*entity.Message, error)
}
