package workbench

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/poco-ai/poco-console/internals/projection"
	"github.com/poco-ai/poco-console/internals/schemas"
)

type fakeAPI struct {
	sessions  map[string]*schemas.ExecutionSession
	replies   map[string][]schemas.ChatMessage
	files     []schemas.FileNode
	filesErr  error
	sendErr   error
	archive   *schemas.WorkspaceArchive
	archErr   error
	sendCalls int
	fileCalls int
	hints     []int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		sessions: map[string]*schemas.ExecutionSession{
			"123": {SessionID: "123", UserPrompt: "Summarize doc", Progress: 10},
			"456": {SessionID: "456", UserPrompt: "Other task", Progress: 50},
		},
		replies: map[string][]schemas.ChatMessage{},
	}
}

func (f *fakeAPI) GetSession(_ context.Context, id string, hint int) (*schemas.ExecutionSession, error) {
	f.hints = append(f.hints, hint)
	s, ok := f.sessions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	snapshot := *s
	return &snapshot, nil
}

func (f *fakeAPI) CreateSession(_ context.Context, prompt string) (*schemas.ExecutionSession, error) {
	s := &schemas.ExecutionSession{SessionID: "789", UserPrompt: prompt, TaskName: schemas.TaskName(prompt)}
	f.sessions[s.SessionID] = s
	return s, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, _, _, _ string) error {
	f.sendCalls++
	return f.sendErr
}

func (f *fakeAPI) GetMessages(_ context.Context, _, afterID string) ([]schemas.ChatMessage, error) {
	return f.replies[afterID], nil
}

func (f *fakeAPI) GetFiles(_ context.Context, _ string) ([]schemas.FileNode, error) {
	f.fileCalls++
	return f.files, f.filesErr
}

func (f *fakeAPI) GetWorkspaceArchive(_ context.Context, _ string) (*schemas.WorkspaceArchive, error) {
	return f.archive, f.archErr
}

func newTestWorkbench(api API) *Workbench {
	n := 0
	return New(api,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("msg-%d", n)
		}),
		WithClock(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
	)
}

func TestOpenSeedsInitialMessage(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkbench(newFakeAPI())
	if !w.Run(ctx, w.Open("123")) {
		t.Fatalf("expected open to apply")
	}
	msgs := w.Log().Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	want := schemas.ChatMessage{ID: "msg-initial-123", Role: schemas.MessageRoleUser, Content: "Summarize doc", Status: schemas.MessageStatusSent}
	if msgs[0] != want {
		t.Fatalf("unexpected seed %+v", msgs[0])
	}

	w.Run(ctx, w.Refresh())
	w.Run(ctx, w.Refresh())
	if w.Log().Len() != 1 {
		t.Fatalf("seeding must not recur, got %d messages", w.Log().Len())
	}
}

func TestRefreshPassesProgressHint(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	w := newTestWorkbench(api)
	w.Run(ctx, w.Open("123"))
	w.Run(ctx, w.Refresh())
	if len(api.hints) != 2 || api.hints[0] != 0 || api.hints[1] != 10 {
		t.Fatalf("unexpected hints %v", api.hints)
	}
}

func TestBlankSendIsNoop(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	w := newTestWorkbench(api)
	w.Run(ctx, w.Open("123"))

	for _, content := range []string{"", "   ", "\n\t"} {
		if op := w.Send(content); op != nil {
			t.Fatalf("expected nil op for %q", content)
		}
	}
	if api.sendCalls != 0 {
		t.Fatalf("expected no API calls, got %d", api.sendCalls)
	}
	if w.Log().Len() != 1 {
		t.Fatalf("log must not change, got %d", w.Log().Len())
	}
}

func TestSendAppendsReplies(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.replies["msg-1"] = []schemas.ChatMessage{
		{ID: "msg-reply-1", Role: schemas.MessageRoleAssistant, Content: "Done", Status: schemas.MessageStatusCompleted},
	}
	w := newTestWorkbench(api)
	w.Run(ctx, w.Open("123"))
	before := w.Log().Len()

	op := w.Send("  more please ")
	if op == nil {
		t.Fatalf("expected op")
	}
	if w.Log().Len() != before+1 {
		t.Fatalf("optimistic append missing")
	}
	w.Run(ctx, op)

	if got := w.Log().Len(); got != before+1+1 {
		t.Fatalf("expected log to grow by 1 + replies, got %d", got-before)
	}
	msgs := w.Log().Messages()
	if msgs[1].ID != "msg-1" || msgs[1].Content != "more please" || msgs[1].Timestamp != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected local message %+v", msgs[1])
	}
	if msgs[2].ID != "msg-reply-1" {
		t.Fatalf("reply must follow the local message, got %+v", msgs[2])
	}
}

func TestSendFailureKeepsOptimisticMessage(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.sendErr = errors.New("boom")
	w := newTestWorkbench(api)
	w.Run(ctx, w.Open("123"))

	if w.Run(ctx, w.Send("hello")) {
		t.Fatalf("failed send must not report a change")
	}
	if _, ok := w.Log().Get("msg-1"); !ok {
		t.Fatalf("optimistic message must stay")
	}
	if w.Log().Len() != 2 {
		t.Fatalf("expected seed + optimistic, got %d", w.Log().Len())
	}
}

func TestStaleSessionResultDropped(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkbench(newFakeAPI())

	slow := w.Open("123")
	fast := w.Open("456")
	if !w.Apply(fast(ctx)) {
		t.Fatalf("active session result should apply")
	}
	if w.Apply(slow(ctx)) {
		t.Fatalf("stale result must be dropped")
	}
	if w.Session().SessionID() != "456" || w.Session().Progress() != 50 {
		t.Fatalf("active session corrupted: %s %d", w.Session().SessionID(), w.Session().Progress())
	}
	msgs := w.Log().Messages()
	if len(msgs) != 1 || msgs[0].ID != "msg-initial-456" {
		t.Fatalf("unexpected log after stale result %+v", msgs)
	}
}

func TestStaleSendDropped(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.replies["msg-1"] = []schemas.ChatMessage{{ID: "r1", Role: schemas.MessageRoleAssistant, Status: schemas.MessageStatusCompleted}}
	w := newTestWorkbench(api)
	w.Run(ctx, w.Open("123"))
	send := w.Send("hi")
	w.Run(ctx, w.Open("456"))
	if w.Apply(send(ctx)) {
		t.Fatalf("replies for the previous session must be dropped")
	}
	if _, ok := w.Log().Get("r1"); ok {
		t.Fatalf("reply leaked into the new session")
	}
}

func TestOlderRefreshDropped(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	w := newTestWorkbench(api)
	w.Run(ctx, w.Open("123"))

	older := w.Refresh()
	api.sessions["123"].Progress = 80
	newer := w.Refresh()
	w.Apply(newer(ctx))
	api.sessions["123"].Progress = 20
	if w.Apply(older(ctx)) {
		t.Fatalf("older refresh must not win")
	}
	if w.Session().Progress() != 80 {
		t.Fatalf("expected progress 80, got %d", w.Session().Progress())
	}
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	w := newTestWorkbench(newFakeAPI())
	if w.Create("  ") != nil {
		t.Fatalf("blank prompt must be a no-op")
	}
	if !w.Run(ctx, w.Create("Write a report")) {
		t.Fatalf("expected create to apply")
	}
	if w.SessionID() != "789" || w.Session().Title() != "Write a report" {
		t.Fatalf("unexpected session %q %q", w.SessionID(), w.Session().Title())
	}
	if msgs := w.Log().Messages(); len(msgs) != 1 || msgs[0].ID != "msg-initial-789" {
		t.Fatalf("expected seed for created session, got %+v", msgs)
	}
}

func TestFetchFilesOnceAndFailureLeavesEmpty(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.filesErr = errors.New("unreachable")
	w := newTestWorkbench(api)
	w.Run(ctx, w.Open("123"))

	if w.Run(ctx, w.FetchFiles()) {
		t.Fatalf("failed fetch must not report a change")
	}
	files := w.Panel().Files()
	if files == nil || len(files) != 0 {
		t.Fatalf("expected [] after failure, got %#v", files)
	}
	if op := w.FetchFiles(); op != nil {
		t.Fatalf("files must be fetched once per session")
	}
	if api.fileCalls != 1 {
		t.Fatalf("expected one fetch, got %d", api.fileCalls)
	}

	api.filesErr = nil
	api.files = []schemas.FileNode{{ID: "1", Name: "a.md", Type: schemas.FileNodeFile, Path: "/a.md"}}
	w.Run(ctx, w.Open("456"))
	if !w.Run(ctx, w.FetchFiles()) || len(w.Panel().Files()) != 1 {
		t.Fatalf("expected files for the new session")
	}
}

func TestSidebarThroughWorkbench(t *testing.T) {
	w := newTestWorkbench(newFakeAPI())
	w.ToggleSidebar()
	if w.Panel().ViewMode() != projection.ViewDocument {
		t.Fatalf("expected document")
	}
	w.SelectFile(schemas.FileNode{ID: "1"})
	w.CloseSidebar()
	if w.Panel().ViewMode() != projection.ViewArtifacts || w.Panel().SelectedFile() != nil {
		t.Fatalf("expected artifacts with no selection")
	}
}

func TestArchiveNotifications(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	w := newTestWorkbench(api)
	w.Run(ctx, w.Open("123"))

	api.archive = &schemas.WorkspaceArchive{}
	w.Run(ctx, w.DownloadArchive())
	notes := w.Notifications()
	if len(notes) != 1 || notes[0].Level != LevelError || notes[0].Title != "Archive unavailable" {
		t.Fatalf("expected one unavailable notification, got %+v", notes)
	}
	if len(w.Notifications()) != 0 {
		t.Fatalf("notifications must be drained")
	}

	url := "http://localhost/archive.zip"
	api.archive = &schemas.WorkspaceArchive{URL: &url}
	w.Run(ctx, w.DownloadArchive())
	notes = w.Notifications()
	if len(notes) != 1 || notes[0].Level != LevelSuccess || notes[0].Filename != "workspace-123.zip" || notes[0].URL != url {
		t.Fatalf("unexpected success notification %+v", notes)
	}

	api.archive, api.archErr = nil, errors.New("offline")
	w.Run(ctx, w.DownloadArchive())
	notes = w.Notifications()
	if len(notes) != 1 || notes[0].Title != "Download failed" {
		t.Fatalf("unexpected failure notification %+v", notes)
	}
}

func TestPollMessagesCompletesStreaming(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.replies["msg-1"] = []schemas.ChatMessage{{ID: "r1", Role: schemas.MessageRoleAssistant, Status: schemas.MessageStatusStreaming}}
	w := newTestWorkbench(api)
	w.Run(ctx, w.Open("123"))
	if w.PollMessages() != nil {
		t.Fatalf("nothing to poll yet")
	}
	w.Run(ctx, w.Send("hi"))
	if len(w.Log().Pending()) != 1 {
		t.Fatalf("expected a streaming reply")
	}
	api.replies[""] = []schemas.ChatMessage{
		{ID: "msg-1", Role: schemas.MessageRoleUser, Content: "hi", Status: schemas.MessageStatusSent},
		{ID: "r1", Role: schemas.MessageRoleAssistant, Content: "answer", Status: schemas.MessageStatusCompleted},
	}
	w.Run(ctx, w.PollMessages())
	if len(w.Log().Pending()) != 0 {
		t.Fatalf("expected reply to complete")
	}
	if w.Log().Len() != 3 {
		t.Fatalf("poll must not duplicate messages, got %d", w.Log().Len())
	}
}

func TestHistoryAppendsServerMessagesAfterSeed(t *testing.T) {
	api := newFakeAPI()
	api.replies[""] = []schemas.ChatMessage{
		{ID: "u1", Role: schemas.MessageRoleUser, Content: "more", Status: schemas.MessageStatusSent},
		{ID: "r1", Role: schemas.MessageRoleAssistant, Content: "ok", Status: schemas.MessageStatusStreaming},
	}
	wb := newTestWorkbench(api)
	ctx := context.Background()

	if wb.History() != nil {
		t.Fatalf("history without a session must be a no-op")
	}
	wb.Run(ctx, wb.Open("123"))
	if !wb.Run(ctx, wb.History()) {
		t.Fatalf("expected history to change the log")
	}
	msgs := wb.Log().Messages()
	if len(msgs) != 3 || msgs[0].ID != schemas.InitialMessageID("123") || msgs[2].ID != "r1" {
		t.Fatalf("unexpected log %+v", msgs)
	}
	if len(wb.Log().Pending()) != 1 || wb.PollMessages() == nil {
		t.Fatalf("streaming reply must keep polling enabled")
	}
}

func TestSendDropsMalformedServerMessages(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.replies["msg-1"] = []schemas.ChatMessage{
		{ID: "r1", Role: schemas.MessageRole("system"), Content: "odd", Status: schemas.MessageStatus("bogus")},
		{ID: "r2", Role: schemas.MessageRoleAssistant, Content: "ok", Status: schemas.MessageStatusCompleted},
	}
	var buf bytes.Buffer
	w := New(api,
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithIDGenerator(func() string { return "msg-1" }),
	)
	w.Run(ctx, w.Open("123"))
	w.Run(ctx, w.Send("hi"))

	if _, ok := w.Log().Get("r1"); ok {
		t.Fatalf("message with unknown role and status must be dropped")
	}
	if _, ok := w.Log().Get("r2"); !ok {
		t.Fatalf("valid reply must be kept")
	}
	if !strings.Contains(buf.String(), "Rejected server message") || !strings.Contains(buf.String(), "message_id=r1") {
		t.Fatalf("expected rejection to be logged, got %q", buf.String())
	}
}

func TestSelectFileID(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.files = []schemas.FileNode{{
		ID: "dir", Name: "docs", Type: schemas.FileNodeFolder, Path: "/docs",
		Children: []schemas.FileNode{{ID: "f1", Name: "a.md", Type: schemas.FileNodeFile, Path: "/docs/a.md"}},
	}}
	w := newTestWorkbench(api)
	w.Run(ctx, w.Open("123"))
	w.Run(ctx, w.FetchFiles())

	if w.SelectFileID("missing") || w.SelectFileID("dir") {
		t.Fatalf("unknown ids and folders must not be selectable")
	}
	if !w.SelectFileID("f1") {
		t.Fatalf("expected nested file to be selected")
	}
	if sel := w.Panel().SelectedFile(); sel == nil || sel.Path != "/docs/a.md" || w.Panel().ViewMode() != projection.ViewDocument {
		t.Fatalf("unexpected selection %+v", sel)
	}
}
