// Package chatlog keeps the ordered message history of one session.
//
// The log only grows. Entries are never removed or reordered; the one
// mutation allowed on an existing entry is a status transition accepted by
// schemas.CanTransition.
package chatlog

import (
	"errors"
	"fmt"

	"github.com/poco-ai/poco-console/internals/schemas"
)

var (
	ErrDuplicateID  = errors.New("message id already in log")
	ErrEmptyID      = errors.New("message id is empty")
	ErrUnknownCause = errors.New("causing message not in log")
)

type Log struct {
	sessionID string
	messages  []schemas.ChatMessage
	index     map[string]int
}

func New(sessionID string) *Log {
	return &Log{sessionID: sessionID, index: map[string]int{}}
}

func (l *Log) SessionID() string {
	return l.sessionID
}

// AppendLocal inserts a message at the tail before the server confirms it.
func (l *Log) AppendLocal(msg schemas.ChatMessage) error {
	if msg.ID == "" {
		return ErrEmptyID
	}
	if _, ok := l.index[msg.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, msg.ID)
	}
	l.push(msg)
	return nil
}

// Reconcile merges server messages produced in response to causeID. New ids
// land at the tail, after the local message that triggered them. Known ids
// only pick up a legal status change. It returns the number of appended
// messages. An empty causeID reconciles without a trigger, e.g. a poll.
func (l *Log) Reconcile(causeID string, incoming []schemas.ChatMessage) (int, error) {
	if causeID != "" {
		if _, ok := l.index[causeID]; !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownCause, causeID)
		}
	}
	appended := 0
	for _, msg := range incoming {
		if msg.ID == "" {
			continue
		}
		if i, ok := l.index[msg.ID]; ok {
			l.transition(i, msg)
			continue
		}
		l.push(msg)
		appended++
	}
	return appended, nil
}

// Seed adds the initial user message of a session. It only runs on an empty
// log, so it happens at most once per session.
func (l *Log) Seed(session *schemas.ExecutionSession) bool {
	if session == nil || session.UserPrompt == "" || len(l.messages) > 0 {
		return false
	}
	if session.SessionID != l.sessionID {
		return false
	}
	l.push(schemas.ChatMessage{
		ID:        schemas.InitialMessageID(session.SessionID),
		Role:      schemas.MessageRoleUser,
		Content:   session.UserPrompt,
		Status:    schemas.MessageStatusSent,
		Timestamp: session.Time,
	})
	return true
}

// Messages returns a copy of the log in insertion order.
func (l *Log) Messages() []schemas.ChatMessage {
	out := make([]schemas.ChatMessage, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *Log) Len() int {
	return len(l.messages)
}

func (l *Log) Get(id string) (schemas.ChatMessage, bool) {
	i, ok := l.index[id]
	if !ok {
		return schemas.ChatMessage{}, false
	}
	return l.messages[i], true
}

// Pending lists assistant messages that are still streaming.
func (l *Log) Pending() []schemas.ChatMessage {
	var out []schemas.ChatMessage
	for _, msg := range l.messages {
		if msg.Role == schemas.MessageRoleAssistant && msg.Status == schemas.MessageStatusStreaming {
			out = append(out, msg)
		}
	}
	return out
}

func (l *Log) push(msg schemas.ChatMessage) {
	l.index[msg.ID] = len(l.messages)
	l.messages = append(l.messages, msg)
}

func (l *Log) transition(i int, msg schemas.ChatMessage) {
	current := l.messages[i]
	if !schemas.CanTransition(current.Status, msg.Status) {
		return
	}
	current.Status = msg.Status
	if msg.Content != "" {
		current.Content = msg.Content
	}
	if msg.Metadata != nil {
		current.Metadata = msg.Metadata
	}
	l.messages[i] = current
}
