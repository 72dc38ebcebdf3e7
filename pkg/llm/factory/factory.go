package factory

import (
	"fmt"
	"time"

	"ai-chat-be/pkg/llm"
	"ai-chat-be/pkg/llm/ollama"
	"ai-chat-be/pkg/llm/openai"

	"github.com/openai/openai-go/option"
)

type Settings struct {
	Provider      string
	APIKey        string
	BaseURL       string
	OllamaBaseURL string
	Model         string
	Timeout       time.Duration
}

func NewLLMProvider(s Settings) (llm.LLMProvider, error) {
	switch s.Provider {
	case "openai", "":
		if s.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		var opts []option.RequestOption
		if s.Timeout > 0 {
			opts = append(opts, option.WithRequestTimeout(s.Timeout))
		}
		return openai.NewOpenAIProvider(s.APIKey, s.BaseURL, s.Model, opts...), nil
	case "ollama":
		baseURL := s.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, s.Model, s.Timeout), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", s.Provider)
	}
}
