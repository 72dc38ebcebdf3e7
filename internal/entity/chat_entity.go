package entity

import "time"

type Chat struct {
	Id         int64
	ExternalId string
	Title      string
	Model      string
	CreatedAt  time.Time
}

// ChatPatch holds the optional fields of a chat update. Nil means "leave as is".
type ChatPatch struct {
	Title *string
	Model *string
}
