package models

import "time"

type ChatRole string

const (
	ChatUser      ChatRole = "user"
	ChatAssistant ChatRole = "assistant"
)

// ChatMessage is one entry of the assistant transcript.
type ChatMessage struct {
	Role   ChatRole  `json:"role"`
	Text   string    `json:"text"`
	Failed bool      `json:"failed,omitempty"`
	At     time.Time `json:"at"`
}
