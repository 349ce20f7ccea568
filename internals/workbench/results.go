package workbench

import (
	"context"

	"github.com/poco-ai/poco-console/internals/schemas"
)

// Token identifies the session state an async operation was started for.
// Generation increases on every session switch.
type Token struct {
	Generation uint64
	SessionID  string
}

// Op performs the network part of a user action. It must not touch
// workbench state; its Result goes back through Workbench.Apply.
type Op func(ctx context.Context) Result

type Result interface {
	Origin() Token
}

type (
	SessionLoaded struct {
		Token   Token
		Seq     uint64
		Session *schemas.ExecutionSession
		Err     error
	}

	SessionCreated struct {
		Token   Token
		Session *schemas.ExecutionSession
		Err     error
	}

	// MessagesLoaded answers a send (CauseID set) or a poll (CauseID empty).
	MessagesLoaded struct {
		Token    Token
		CauseID  string
		Messages []schemas.ChatMessage
		Err      error
	}

	FilesLoaded struct {
		Token Token
		Files []schemas.FileNode
		Err   error
	}

	ArchiveLoaded struct {
		Token   Token
		Archive *schemas.WorkspaceArchive
		Err     error
	}
)

func (r SessionLoaded) Origin() Token  { return r.Token }
func (r SessionCreated) Origin() Token { return r.Token }
func (r MessagesLoaded) Origin() Token { return r.Token }
func (r FilesLoaded) Origin() Token    { return r.Token }
func (r ArchiveLoaded) Origin() Token  { return r.Token }

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient message for the user.
type Notification struct {
	Level    Level
	Title    string
	Detail   string
	URL      string
	Filename string
}
