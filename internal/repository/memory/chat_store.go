package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/apperror"
	"ai-chat-be/internal/repository/contract"

	"github.com/google/uuid"
)

var _ contract.SessionStore = (*ChatStore)(nil)

// ChatStore is the process-lifetime store for chats and their messages.
// All mutations happen under a single lock, so no reader ever observes half
// of an operation (a chat without its cascade, an id without its record).
type ChatStore struct {
	mu sync.RWMutex

	chats      map[int64]entity.Chat
	byExternal map[string]int64
	issuedIds  map[string]struct{} // every external id ever handed out, deleted chats included
	messages   map[int64][]entity.Message

	nextChatId    int64
	nextMessageId int64

	defaultModel  string
	now           func() time.Time
	newExternalId func() string
}

type Option func(*ChatStore)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *ChatStore) {
		s.now = now
	}
}

// WithExternalIdGenerator overrides the external identifier source.
func WithExternalIdGenerator(gen func() string) Option {
	return func(s *ChatStore) {
		s.newExternalId = gen
	}
}

// NewChatStore builds an empty store and provisions the default chat.
func NewChatStore(defaultModel string, opts ...Option) *ChatStore {
	s := &ChatStore{
		chats:         make(map[int64]entity.Chat),
		byExternal:    make(map[string]int64),
		issuedIds:     make(map[string]struct{}),
		messages:      make(map[int64][]entity.Message),
		nextChatId:    1,
		nextMessageId: 1,
		defaultModel:  defaultModel,
		now:           time.Now,
		newExternalId: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	s.createChatLocked(constant.DefaultChatTitle, "")
	s.mu.Unlock()

	return s
}

func (s *ChatStore) CreateChat(ctx context.Context, title, model string) (*entity.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.Validation("title must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chat := s.createChatLocked(title, model)
	return &chat, nil
}

func (s *ChatStore) createChatLocked(title, model string) entity.Chat {
	model = strings.TrimSpace(model)
	if model == "" {
		model = s.defaultModel
	}

	chat := entity.Chat{
		Id:         s.nextChatId,
		ExternalId: s.uniqueExternalIdLocked(),
		Title:      title,
		Model:      model,
		CreatedAt:  s.now(),
	}
	s.nextChatId++

	s.chats[chat.Id] = chat
	s.byExternal[chat.ExternalId] = chat.Id
	s.issuedIds[chat.ExternalId] = struct{}{}
	return chat
}

func (s *ChatStore) uniqueExternalIdLocked() string {
	for {
		id := s.newExternalId()
		if id == "" {
			continue
		}
		if _, taken := s.issuedIds[id]; !taken {
			return id
		}
	}
}

func (s *ChatStore) GetChat(ctx context.Context, id int64) (*entity.Chat, error) {
	if id <= 0 {
		return nil, apperror.Validation(fmt.Sprintf("invalid chat id %d", id))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[id]
	if !ok {
		return nil, nil
	}
	return &chat, nil
}

func (s *ChatStore) GetChatByExternalId(ctx context.Context, externalId string) (*entity.Chat, error) {
	externalId = strings.TrimSpace(externalId)
	if externalId == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byExternal[externalId]
	if !ok {
		return nil, nil
	}
	chat := s.chats[id]
	return &chat, nil
}

func (s *ChatStore) ListChats(ctx context.Context) ([]*entity.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*entity.Chat, 0, len(s.chats))
	for _, chat := range s.chats {
		c := chat
		result = append(result, &c)
	}

	// Most recently created first
	sort.Slice(result, func(i, j int) bool {
		return result[i].Id > result[j].Id
	})
	return result, nil
}

func (s *ChatStore) UpdateChat(ctx context.Context, id int64, patch entity.ChatPatch) (*entity.Chat, error) {
	if id <= 0 {
		return nil, apperror.Validation(fmt.Sprintf("invalid chat id %d", id))
	}

	var title string
	if patch.Title != nil {
		title = strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperror.Validation("title must not be empty; omit it to keep the current title")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok {
		return nil, apperror.NotFound(fmt.Sprintf("chat %d not found", id))
	}

	if patch.Title != nil {
		chat.Title = title
	}
	if patch.Model != nil {
		if model := strings.TrimSpace(*patch.Model); model != "" {
			chat.Model = model
		}
	}

	s.chats[id] = chat
	return &chat, nil
}

func (s *ChatStore) DeleteChat(ctx context.Context, id int64) error {
	if id <= 0 {
		return apperror.Validation(fmt.Sprintf("invalid chat id %d", id))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[id]
	if !ok {
		return apperror.NotFound(fmt.Sprintf("chat %d not found", id))
	}

	delete(s.chats, id)
	delete(s.byExternal, chat.ExternalId)
	delete(s.messages, id)
	return nil
}

func (s *ChatStore) ListMessages(ctx context.Context, chatId int64) ([]*entity.Message, error) {
	if chatId <= 0 {
		return nil, apperror.Validation(fmt.Sprintf("invalid chat id %d", chatId))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.chats[chatId]; !ok {
		return nil, apperror.NotFound(fmt.Sprintf("chat %d not found", chatId))
	}

	stored := s.messages[chatId]
	result := make([]*entity.Message, 0, len(stored))
	for _, msg := range stored {
		m := msg
		result = append(result, &m)
	}
	return result, nil
}

func (s *ChatStore) InsertMessage(ctx context.Context, message entity.NewMessage) (*entity.Message, error) {
	if message.ChatId <= 0 {
		return nil, apperror.Validation(fmt.Sprintf("invalid chat id %d", message.ChatId))
	}
	if !entity.IsValidMessageRole(message.Role) {
		return nil, apperror.Validation(fmt.Sprintf("invalid role %q", message.Role))
	}
	content := strings.TrimSpace(message.Content)
	if content == "" {
		return nil, apperror.Validation("content must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[message.ChatId]
	if !ok {
		return nil, apperror.NotFound(fmt.Sprintf("chat %d not found", message.ChatId))
	}

	model := strings.TrimSpace(message.Model)
	if model == "" {
		model = chat.Model
	}

	timestamp := s.now()
	existing := s.messages[chat.Id]
	if n := len(existing); n > 0 && timestamp.Before(existing[n-1].Timestamp) {
		// Wall clock stepped back; keep per-chat order non-decreasing
		timestamp = existing[n-1].Timestamp
	}

	stored := entity.Message{
		Id:        s.nextMessageId,
		ChatId:    chat.Id,
		Role:      message.Role,
		Content:   message.Content,
		Author:    message.Author,
		Model:     model,
		Timestamp: timestamp,
	}
	s.nextMessageId++

	s.messages[chat.Id] = append(existing, stored)
	return &stored, nil
}
