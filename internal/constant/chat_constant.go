package constant

const (
	ChatMessageRoleSystem = "system"

	DefaultChatTitle = "New Chat"

	// Exchange policy for a single send
	ContextWindowSize  = 5
	ReplyTemperature   = 0.7
	ReplyMaxTokens     = 2048
	AssistantAuthor    = "assistant"
	DegradedSendNotice = "Message stored, assistant reply unavailable"

	SystemInstruction = `You are a helpful assistant in a multi-thread chat application.
Answer the latest user message using the earlier turns of this conversation as context.
Be accurate and concise. Use Markdown for lists, tables and code, and LaTeX for math.
If you do not know the answer, say so instead of guessing.`
)

// Domain event types published on the event bus
const (
	EventChatCreated    = "chat.created"
	EventChatUpdated    = "chat.updated"
	EventChatDeleted    = "chat.deleted"
	EventMessageCreated = "message.created"
)
