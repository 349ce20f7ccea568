// Package sessionmodel holds the latest execution session seen by the
// client and the values derived from it.
package sessionmodel

import "github.com/poco-ai/poco-console/internals/schemas"

const DefaultTitle = "Conversation"

type Store struct {
	session *schemas.ExecutionSession
	seq     uint64
}

func New() *Store {
	return &Store{}
}

// Set replaces the session unconditionally and resets the sequence.
func (s *Store) Set(session *schemas.ExecutionSession) {
	s.session = session
	s.seq = 0
}

// Apply stores a snapshot fetched by request number seq. Snapshots for
// another session, or older than the last applied one, are ignored.
func (s *Store) Apply(session *schemas.ExecutionSession, seq uint64) bool {
	if session == nil {
		return false
	}
	if s.session != nil && s.session.SessionID != session.SessionID {
		return false
	}
	if s.session != nil && seq < s.seq {
		return false
	}
	s.session = session
	s.seq = seq
	return true
}

func (s *Store) Clear() {
	s.session = nil
	s.seq = 0
}

func (s *Store) Session() *schemas.ExecutionSession {
	return s.session
}

func (s *Store) SessionID() string {
	if s.session == nil {
		return ""
	}
	return s.session.SessionID
}

func (s *Store) Progress() int {
	if s.session == nil {
		return 0
	}
	return max(0, min(100, s.session.Progress))
}

func (s *Store) Done() bool {
	return s.session.Done()
}

func (s *Store) CurrentStep() string {
	if p := s.patch(); p != nil {
		return p.CurrentStep
	}
	return ""
}

// Title picks the task name, then the new_message title, then DefaultTitle.
func (s *Store) Title() string {
	if s.session == nil {
		return DefaultTitle
	}
	if s.session.TaskName != "" {
		return s.session.TaskName
	}
	if s.session.NewMessage != nil && s.session.NewMessage.Title != "" {
		return s.session.NewMessage.Title
	}
	return DefaultTitle
}

func (s *Store) Todos() []schemas.Todo {
	if p := s.patch(); p != nil {
		return p.Todos
	}
	return nil
}

func (s *Store) Artifacts() []schemas.Artifact {
	if p := s.patch(); p != nil {
		return p.Artifacts
	}
	return nil
}

func (s *Store) Skills() []schemas.SkillUsage {
	if p := s.patch(); p != nil {
		return p.SkillsUsed
	}
	return nil
}

func (s *Store) MCP() []schemas.McpStatus {
	if p := s.patch(); p != nil {
		return p.McpStatus
	}
	return nil
}

func (s *Store) HasTodos() bool     { return len(s.Todos()) > 0 }
func (s *Store) HasArtifacts() bool { return len(s.Artifacts()) > 0 }
func (s *Store) HasSkills() bool    { return len(s.Skills()) > 0 }
func (s *Store) HasMCP() bool       { return len(s.MCP()) > 0 }

// CompletedTodos counts todos in the completed state.
func (s *Store) CompletedTodos() int {
	n := 0
	for _, todo := range s.Todos() {
		if todo.Status == schemas.TodoStatusCompleted {
			n++
		}
	}
	return n
}

func (s *Store) patch() *schemas.StatePatch {
	if s.session == nil {
		return nil
	}
	return s.session.StatePatch
}
