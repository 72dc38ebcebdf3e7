package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-chat-be/internal/bootstrap"
	"ai-chat-be/internal/config"
	"ai-chat-be/internal/constant"
	"ai-chat-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedProvider struct {
	reply string
	err   error
}

func (p *fixedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return p.reply, p.err
}

func (p *fixedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.reply, p.err
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type chatBody struct {
	Id         int64  `json:"id"`
	ExternalId string `json:"externalId"`
	Title      string `json:"title"`
	Model      string `json:"model"`
}

type messageBody struct {
	Id      int64  `json:"id"`
	ChatId  int64  `json:"chatId"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Author  string `json:"author"`
	Model   string `json:"model"`
}

type modelBody struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Default  bool   `json:"default"`
}

type sendBody struct {
	Messages []messageBody `json:"messages"`
	Degraded bool          `json:"degraded"`
}

func testConfig(rateLimit int) *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Port:               "0",
			Environment:        "test",
			CorsAllowedOrigins: "*",
		},
		Ai: config.AIConfig{
			LLMProvider:  "openai",
			APIKey:       "test",
			DefaultModel: "gpt-4o-mini",
			Timeout:      time.Second,
		},
		RateLimit: config.RateLimitConfig{Max: rateLimit, Window: time.Minute},
		Status:    config.StatusConfig{HeartbeatInterval: time.Second},
		Events:    config.EventsConfig{Topic: "chat.events.test"},
	}
}

func newTestApp(t *testing.T, provider llm.LLMProvider, rateLimit int) *fiber.App {
	t.Helper()
	container := bootstrap.NewContainer(testConfig(rateLimit), provider)
	t.Cleanup(func() { _ = container.Close() })
	return New(testConfig(rateLimit), container).GetApp()
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, &fixedProvider{reply: "hi"}, 20)

	code, env := do(t, app, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, "ok", decode[map[string]any](t, env.Data)["status"])
}

func TestTripPlanningOverHTTP(t *testing.T) {
	app := newTestApp(t, &fixedProvider{reply: "Hello Alice"}, 20)

	code, env := do(t, app, http.MethodGet, "/api/chats", nil)
	require.Equal(t, http.StatusOK, code)
	chats := decode[[]chatBody](t, env.Data)
	require.Len(t, chats, 1)
	assert.Equal(t, constant.DefaultChatTitle, chats[0].Title)

	code, env = do(t, app, http.MethodPost, "/api/chats", map[string]string{"title": "Trip planning"})
	require.Equal(t, http.StatusCreated, code)
	chat := decode[chatBody](t, env.Data)
	assert.Equal(t, "gpt-4o-mini", chat.Model)
	assert.NotEmpty(t, chat.ExternalId)

	code, env = do(t, app, http.MethodPost, "/api/messages", map[string]any{
		"content": "Hi", "author": "alice", "chatId": chat.Id,
	})
	require.Equal(t, http.StatusOK, code)
	sent := decode[sendBody](t, env.Data)
	assert.False(t, sent.Degraded)
	require.Len(t, sent.Messages, 2)
	assert.Equal(t, "user", sent.Messages[0].Role)
	assert.Equal(t, "Hi", sent.Messages[0].Content)
	assert.Equal(t, "assistant", sent.Messages[1].Role)
	assert.Equal(t, "Hello Alice", sent.Messages[1].Content)
	assert.Equal(t, "gpt-4o-mini", sent.Messages[1].Model)

	for _, ref := range []string{chat.ExternalId, fmt.Sprint(chat.Id)} {
		code, env = do(t, app, http.MethodGet, "/api/chats/"+ref+"/messages", nil)
		require.Equal(t, http.StatusOK, code)
		listed := decode[[]messageBody](t, env.Data)
		assert.Equal(t, sent.Messages, listed)
	}
}

func TestDegradedSend(t *testing.T) {
	app := newTestApp(t, &fixedProvider{err: &llm.ProviderError{Provider: "openai", StatusCode: 503, Reason: "unavailable"}}, 20)

	code, env := do(t, app, http.MethodPost, "/api/messages", map[string]any{
		"content": "Hi", "author": "alice", "chatId": 1,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, constant.DegradedSendNotice, env.Message)
	sent := decode[sendBody](t, env.Data)
	assert.True(t, sent.Degraded)
	assert.Len(t, sent.Messages, 1)
}

func TestSendValidation(t *testing.T) {
	app := newTestApp(t, &fixedProvider{reply: "x"}, 20)

	code, env := do(t, app, http.MethodPost, "/api/messages", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, env.Success)

	code, env = do(t, app, http.MethodPost, "/api/messages", map[string]any{"content": "  ", "chatId": 1})
	assert.Equal(t, http.StatusBadRequest, code)
	fields := decode[map[string]string](t, env.Data)
	assert.Contains(t, fields, "content")
	assert.Contains(t, fields, "author")
}

func TestChatLifecycle(t *testing.T) {
	app := newTestApp(t, &fixedProvider{reply: "x"}, 20)

	_, env := do(t, app, http.MethodPost, "/api/chats", map[string]string{"title": "Draft", "model": "llama3"})
	chat := decode[chatBody](t, env.Data)

	code, env := do(t, app, http.MethodPatch, "/api/chats/"+chat.ExternalId, map[string]string{"title": "Final"})
	require.Equal(t, http.StatusOK, code)
	updated := decode[chatBody](t, env.Data)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "llama3", updated.Model)

	code, _ = do(t, app, http.MethodPatch, "/api/chats/"+chat.ExternalId, map[string]string{"title": " "})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, app, http.MethodDelete, "/api/chats/"+chat.ExternalId, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, app, http.MethodGet, "/api/chats/"+chat.ExternalId, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, app, http.MethodDelete, "/api/chats/"+chat.ExternalId, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = do(t, app, http.MethodPost, "/api/messages", map[string]any{
		"content": "Hi", "author": "alice", "chatId": chat.Id,
	})
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, env.Success)
}

func TestSendRateLimited(t *testing.T) {
	const limit = 3
	app := newTestApp(t, &fixedProvider{reply: "x"}, limit)

	for i := 0; i < limit; i++ {
		code, _ := do(t, app, http.MethodPost, "/api/messages", map[string]any{
			"content": "Hi", "author": "alice", "chatId": 1,
		})
		require.Equal(t, http.StatusOK, code)
	}

	code, env := do(t, app, http.MethodPost, "/api/messages", map[string]any{
		"content": "Hi", "author": "alice", "chatId": 1,
	})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Contains(t, decode[map[string]string](t, env.Data), "retry_after")

	// Other routes are not limited
	code, _ = do(t, app, http.MethodGet, "/api/chats", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestListModels(t *testing.T) {
	app := newTestApp(t, &fixedProvider{reply: "x"}, 20)

	code, env := do(t, app, http.MethodGet, "/api/models", nil)
	require.Equal(t, http.StatusOK, code)
	models := decode[[]modelBody](t, env.Data)
	require.NotEmpty(t, models)

	defaults := 0
	for i, m := range models {
		if i > 0 {
			assert.LessOrEqual(t, models[i-1].Name, m.Name)
		}
		if m.Default {
			defaults++
			assert.Equal(t, "gpt-4o-mini", m.Id)
		}
	}
	assert.Equal(t, 1, defaults)

	code, env = do(t, app, http.MethodGet, "/api/models?provider=anthropic", nil)
	require.Equal(t, http.StatusOK, code)
	for _, m := range decode[[]modelBody](t, env.Data) {
		assert.Equal(t, "Anthropic", m.Provider)
	}
}

func TestListMessagesByAuthor(t *testing.T) {
	app := newTestApp(t, &fixedProvider{reply: "noted"}, 20)

	for _, author := range []string{"alice", "bob"} {
		code, _ := do(t, app, http.MethodPost, "/api/messages", map[string]any{
			"content": "hello from " + author, "author": author, "chatId": 1,
		})
		require.Equal(t, http.StatusOK, code)
	}

	code, env := do(t, app, http.MethodGet, "/api/chats/1/messages?author=bob", nil)
	require.Equal(t, http.StatusOK, code)
	listed := decode[[]messageBody](t, env.Data)
	require.Len(t, listed, 1)
	assert.Equal(t, "hello from bob", listed[0].Content)

	_, env = do(t, app, http.MethodGet, "/api/chats/1/messages", nil)
	assert.Len(t, decode[[]messageBody](t, env.Data), 4)
}
