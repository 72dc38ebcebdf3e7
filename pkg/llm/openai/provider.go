package openai

import (
	"context"
	"errors"
	"strings"

	"ai-chat-be/pkg/llm"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const providerName = "openai"

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client    sdk.Client
	modelName string
}

// Ensure OpenAIProvider implements LLMProvider
var _ llm.LLMProvider = &OpenAIProvider{}

// NewOpenAIProvider builds a provider. Retries are disabled because the
// caller decides what a failed completion means.
func NewOpenAIProvider(apiKey, baseURL, modelName string, opts ...option.RequestOption) *OpenAIProvider {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(ensureTrailingSlash(baseURL)))
	}
	reqOpts = append(reqOpts, opts...)

	return &OpenAIProvider{
		client:    sdk.NewClient(reqOpts...),
		modelName: modelName,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(llm.Options{
		Temperature: 0.7,
		Model:       p.modelName,
	}, opts...)

	params := sdk.ChatCompletionNewParams{
		Model:       sdk.ChatModel(options.Model),
		Messages:    toSDKMessages(history),
		Temperature: sdk.Float(options.Temperature),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(int64(options.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return "", &llm.ProviderError{
				Provider:   providerName,
				StatusCode: apiErr.StatusCode,
				Reason:     apiErrorReason(apiErr),
				Err:        err,
			}
		}
		return "", &llm.ProviderError{Provider: providerName, Reason: err.Error(), Err: err}
	}

	if len(completion.Choices) == 0 {
		return "", &llm.ProviderError{Provider: providerName, Reason: "response contained no choices"}
	}

	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &llm.ProviderError{Provider: providerName, Reason: "response contained an empty reply"}
	}
	return content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func toSDKMessages(history []llm.Message) []sdk.ChatCompletionMessageParamUnion {
	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch strings.ToLower(msg.Role) {
		case "system":
			messages = append(messages, sdk.SystemMessage(msg.Content))
		case "assistant", "model":
			messages = append(messages, sdk.AssistantMessage(msg.Content))
		default:
			messages = append(messages, sdk.UserMessage(msg.Content))
		}
	}
	return messages
}

func apiErrorReason(apiErr *sdk.Error) string {
	if apiErr.Message != "" {
		return apiErr.Message
	}
	return strings.TrimSpace(apiErr.RawJSON())
}

func ensureTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
