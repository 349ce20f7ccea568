package schemas

import (
	"strings"

	z "github.com/Oudwins/zog"
)

type TodoStatus string

const (
	TodoStatusPending    TodoStatus = "pending"
	TodoStatusInProgress TodoStatus = "in_progress"
	TodoStatusCompleted  TodoStatus = "completed"
)

type Todo struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Status TodoStatus `json:"status"`
}

type SkillStatus string

const (
	SkillStatusRunning SkillStatus = "running"
	SkillStatusDone    SkillStatus = "done"
)

type SkillUsage struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Status SkillStatus `json:"status"`
}

type McpState string

const (
	McpStateConnected    McpState = "connected"
	McpStateDisconnected McpState = "disconnected"
	McpStateError        McpState = "error"
)

type McpStatus struct {
	ServerName string   `json:"server_name"`
	Status     McpState `json:"status"`
	Message    string   `json:"message,omitempty"`
}

// StatePatch is the part of a session that changes while it executes.
// Any field may be missing on the wire; a nil slice means "no content".
type StatePatch struct {
	Todos       []Todo       `json:"todos,omitempty"`
	Artifacts   []Artifact   `json:"artifacts,omitempty"`
	SkillsUsed  []SkillUsage `json:"skills_used,omitempty"`
	McpStatus   []McpStatus  `json:"mcp_status,omitempty"`
	CurrentStep string       `json:"current_step,omitempty"`
}

type NewMessage struct {
	Title string `json:"title"`
}

type ExecutionSession struct {
	SessionID  string      `json:"session_id"`
	TaskName   string      `json:"task_name,omitempty"`
	UserPrompt string      `json:"user_prompt,omitempty"`
	Time       string      `json:"time,omitempty"`
	NewMessage *NewMessage `json:"new_message,omitempty"`
	StatePatch *StatePatch `json:"state_patch,omitempty"`
	Progress   int         `json:"progress"`
}

func (s *ExecutionSession) Done() bool {
	return s != nil && s.Progress >= 100
}

type SessionCreateRequest struct {
	Prompt string `json:"prompt" zog:"prompt"`
}

var SessionCreateSchema = z.Struct(z.Shape{
	"Prompt": z.String().Required(z.Message("prompt is required")).Trim().Min(1, z.Message("prompt is required")),
})

// TaskName derives a display name from a prompt: the first line, cut to
// maxTaskNameRunes runes.
func TaskName(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if i := strings.IndexByte(prompt, '\n'); i >= 0 {
		prompt = strings.TrimSpace(prompt[:i])
	}
	runes := []rune(prompt)
	if len(runes) > maxTaskNameRunes {
		return string(runes[:maxTaskNameRunes])
	}
	return prompt
}

const maxTaskNameRunes = 30
