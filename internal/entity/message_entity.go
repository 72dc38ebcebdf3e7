package entity

import "time"

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

type Message struct {
	Id        int64
	ChatId    int64
	Role      string
	Content   string
	Author    string
	Model     string
	Timestamp time.Time
}

// NewMessage is the insert payload for a message; the store assigns id and timestamp.
type NewMessage struct {
	ChatId  int64
	Role    string
	Content string
	Author  string
	Model   string
}

func IsValidMessageRole(role string) bool {
	return role == MessageRoleUser || role == MessageRoleAssistant
}
