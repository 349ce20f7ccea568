package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poco-ai/poco-console/internals/schemas"
	"github.com/poco-ai/poco-console/internals/testutil"
)

func newTestStore(t *testing.T) *sessionStore {
	t.Helper()
	store, err := newSessionStore(context.Background(), testutil.TempDBPath(t))
	if err != nil {
		t.Fatalf("newSessionStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewSessionStoreRunsMigrations(t *testing.T) {
	store := newTestStore(t)
	for _, table := range []string{"sessions", "messages"} {
		var name string
		row := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table)
		if err := row.Scan(&name); err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}
}

func TestSessionRoundTripAndProgress(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	if err := store.createSession(ctx, sessionRecord{ID: "1", Prompt: "Summarize doc", CreatedAt: created}); err != nil {
		t.Fatalf("createSession: %v", err)
	}

	got, err := store.getSession(ctx, "1")
	if err != nil {
		t.Fatalf("getSession: %v", err)
	}
	if got.Prompt != "Summarize doc" || !got.CreatedAt.Equal(created) || got.Progress != 0 {
		t.Fatalf("unexpected record %+v", got)
	}

	if p, err := store.advanceProgress(ctx, "1", 40); err != nil || p != 40 {
		t.Fatalf("expected 40, got %d %v", p, err)
	}
	if p, err := store.advanceProgress(ctx, "1", 20); err != nil || p != 40 {
		t.Fatalf("progress must not go backwards, got %d %v", p, err)
	}

	if _, err := store.getSession(ctx, "missing"); !errors.Is(err, errSessionNotFound) {
		t.Fatalf("expected errSessionNotFound, got %v", err)
	}
	if _, err := store.advanceProgress(ctx, "missing", 10); !errors.Is(err, errSessionNotFound) {
		t.Fatalf("expected errSessionNotFound, got %v", err)
	}
}

func TestMessagesOrderAfterAndCompletion(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if err := store.createSession(ctx, sessionRecord{ID: "1", Prompt: "p", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("createSession: %v", err)
	}

	msgs := []schemas.ChatMessage{
		{ID: "u1", Role: schemas.MessageRoleUser, Content: "a", Status: schemas.MessageStatusSent},
		{ID: "r1", Role: schemas.MessageRoleAssistant, Content: "b", Status: schemas.MessageStatusStreaming, Metadata: &schemas.MessageMetadata{Model: "m", TokensUsed: 3}},
		{ID: "u2", Role: schemas.MessageRoleUser, Content: "c", Status: schemas.MessageStatusSent},
	}
	for _, msg := range msgs {
		if err := store.appendMessage(ctx, "1", msg); err != nil {
			t.Fatalf("appendMessage: %v", err)
		}
	}
	if err := store.appendMessage(ctx, "1", msgs[0]); !errors.Is(err, errMessageExists) {
		t.Fatalf("expected errMessageExists, got %v", err)
	}

	all, err := store.listMessages(ctx, "1", "")
	if err != nil || len(all) != 3 || all[0].ID != "u1" || all[2].ID != "u2" {
		t.Fatalf("unexpected list %+v %v", all, err)
	}
	if all[1].Metadata == nil || all[1].Metadata.TokensUsed != 3 {
		t.Fatalf("metadata lost: %+v", all[1])
	}

	after, err := store.listMessages(ctx, "1", "u1")
	if err != nil || len(after) != 2 || after[0].ID != "r1" {
		t.Fatalf("unexpected after list %+v %v", after, err)
	}
	unknown, err := store.listMessages(ctx, "1", "nope")
	if err != nil || len(unknown) != 0 {
		t.Fatalf("unknown after id must return none, got %+v %v", unknown, err)
	}

	if ok, err := store.completeMessage(ctx, "r1"); err != nil || !ok {
		t.Fatalf("expected completion, got %v %v", ok, err)
	}
	if ok, _ := store.completeMessage(ctx, "r1"); ok {
		t.Fatalf("completed message must not complete twice")
	}
	if ok, _ := store.completeMessage(ctx, "u1"); ok {
		t.Fatalf("sent message must not change")
	}
}
