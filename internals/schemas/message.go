package schemas

import (
	"fmt"

	z "github.com/Oudwins/zog"
)

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusStreaming MessageStatus = "streaming"
	MessageStatusCompleted MessageStatus = "completed"
)

type MessageMetadata struct {
	Model      string `json:"model,omitempty"`
	TokensUsed int    `json:"tokensUsed,omitempty"`
	Duration   int64  `json:"duration,omitempty"`
}

type ChatMessage struct {
	ID        string           `json:"id"`
	Role      MessageRole      `json:"role"`
	Content   string           `json:"content"`
	Status    MessageStatus    `json:"status"`
	Timestamp string           `json:"timestamp,omitempty"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// CanTransition reports whether a message may move from one status to
// another. Streaming replies complete; nothing else changes.
func CanTransition(from, to MessageStatus) bool {
	return from == MessageStatusStreaming && to == MessageStatusCompleted
}

func InitialMessageID(sessionID string) string {
	return fmt.Sprintf("msg-initial-%s", sessionID)
}

type SendMessageRequest struct {
	Content   string `json:"content" zog:"content"`
	MessageID string `json:"message_id,omitempty" zog:"message_id"`
}

var SendMessageSchema = z.Struct(z.Shape{
	"Content":   z.String().Required(z.Message("content is required")).Trim().Min(1, z.Message("content is required")),
	"MessageID": z.String().Optional().Trim(),
})

var ChatMessageSchema = z.Struct(z.Shape{
	"ID":      z.String().Required(),
	"Role":    z.StringLike[MessageRole]().OneOf([]MessageRole{MessageRoleUser, MessageRoleAssistant}).Required(),
	"Content": z.String(),
	"Status":  z.StringLike[MessageStatus]().OneOf([]MessageStatus{MessageStatusSent, MessageStatusStreaming, MessageStatusCompleted}).Required(),
})
