package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/poco-ai/poco-console/internals/schemas"
)

func writeEnvelope(w http.ResponseWriter, status int, env any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClientVersion(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/version" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeEnvelope(w, http.StatusOK, schemas.Success(map[string]string{"version": "  test-version  "}))
	})

	version, err := client.Version(testContext(t))
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != "test-version" {
		t.Fatalf("expected trimmed version, got %q", version)
	}
}

func TestClientSessionFlows(t *testing.T) {
	var sent schemas.SendMessageRequest
	var created schemas.SessionCreateRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case http.MethodPost + " /sessions":
			_ = json.NewDecoder(r.Body).Decode(&created)
			writeEnvelope(w, http.StatusOK, schemas.Success(schemas.ExecutionSession{SessionID: "123", UserPrompt: created.Prompt}))
		case http.MethodGet + " /sessions/123":
			if r.URL.Query().Get("progress") != "40" {
				writeEnvelope(w, http.StatusBadRequest, schemas.Failure(schemas.CodeBadRequest, "missing hint", nil))
				return
			}
			writeEnvelope(w, http.StatusOK, schemas.Success(schemas.ExecutionSession{SessionID: "123", Progress: 55}))
		case http.MethodPost + " /sessions/123/messages":
			_ = json.NewDecoder(r.Body).Decode(&sent)
			writeEnvelope(w, http.StatusOK, schemas.Success[any](nil))
		case http.MethodGet + " /sessions/123/messages":
			if r.URL.Query().Get("after") != "msg-1" {
				writeEnvelope(w, http.StatusOK, schemas.Success([]schemas.ChatMessage{}))
				return
			}
			writeEnvelope(w, http.StatusOK, schemas.Success([]schemas.ChatMessage{{ID: "msg-reply-1", Role: schemas.MessageRoleAssistant, Status: schemas.MessageStatusStreaming}}))
		default:
			writeEnvelope(w, http.StatusNotFound, schemas.Failure(schemas.CodeNotFound, "Not found", nil))
		}
	})
	ctx := testContext(t)

	session, err := client.CreateSession(ctx, "Summarize doc")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.SessionID != "123" || created.Prompt != "Summarize doc" {
		t.Fatalf("unexpected session %+v (request %+v)", session, created)
	}

	session, err = client.GetSession(ctx, "123", 40)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Progress != 55 {
		t.Fatalf("expected progress 55, got %d", session.Progress)
	}

	if err := client.SendMessage(ctx, "123", "msg-1", "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if sent.Content != "hello" || sent.MessageID != "msg-1" {
		t.Fatalf("unexpected send body %+v", sent)
	}

	messages, err := client.GetMessages(ctx, "123", "msg-1")
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	if len(messages) != 1 || messages[0].ID != "msg-reply-1" {
		t.Fatalf("unexpected messages %+v", messages)
	}

	_, err = client.GetSession(ctx, "missing", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientFilesAndArchive(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files":
			writeEnvelope(w, http.StatusOK, schemas.Success([]schemas.FileNode{{ID: "shared", Type: schemas.FileNodeFolder}}))
		case "/sessions/123/files":
			writeEnvelope(w, http.StatusOK, schemas.Success([]schemas.FileNode{{ID: "1", Type: schemas.FileNodeFile}, {ID: "2", Type: schemas.FileNodeFile}}))
		case "/sessions/123/workspace/archive":
			writeEnvelope(w, http.StatusOK, schemas.Success(schemas.WorkspaceArchive{}))
		case "/download.zip":
			_, _ = w.Write([]byte("zipbytes"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := testContext(t)

	files, err := client.GetFiles(ctx, "")
	if err != nil || len(files) != 1 || files[0].ID != "shared" {
		t.Fatalf("unexpected shared files %+v %v", files, err)
	}
	files, err = client.GetFiles(ctx, "123")
	if err != nil || len(files) != 2 {
		t.Fatalf("unexpected session files %+v %v", files, err)
	}

	archive, err := client.GetWorkspaceArchive(ctx, "123")
	if err != nil {
		t.Fatalf("GetWorkspaceArchive: %v", err)
	}
	if archive.Available() {
		t.Fatalf("expected unavailable archive")
	}

	var buf bytes.Buffer
	n, err := client.Download(ctx, "/download.zip", &buf)
	if err != nil || n != 8 || buf.String() != "zipbytes" {
		t.Fatalf("unexpected download %d %q %v", n, buf.String(), err)
	}
	if _, err := client.Download(ctx, "/nope.zip", &buf); err == nil {
		t.Fatalf("expected download error")
	}
}

func TestClientErrorMapping(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadRequest, schemas.Failure(schemas.CodeValidationFailed, "Validation failed", map[string][]string{"prompt": {"prompt is required"}}))
	})

	_, err := client.CreateSession(testContext(t), "")
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != schemas.CodeValidationFailed || !strings.Contains(apiErr.Error(), "Validation failed") {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if got := apiErr.Details["prompt"]; len(got) != 1 {
		t.Fatalf("expected prompt details, got %+v", apiErr.Details)
	}
}

func TestClientBusinessErrorOn200(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, schemas.Failure(schemas.CodeNotFound, "Session not found", nil))
	})
	_, err := client.GetSession(testContext(t), "x", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from envelope code, got %v", err)
	}
}

func TestClientPlainErrorBody(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	})
	_, err := client.Version(testContext(t))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 APIError, got %v", err)
	}
}

func TestShutdownUnsupported(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	if err := client.Shutdown(testContext(t)); !errors.Is(err, ErrShutdownUnsupported) {
		t.Fatalf("expected ErrShutdownUnsupported, got %v", err)
	}
}

func TestIsRunning(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, schemas.Success(map[string]string{"version": "v"}))
	}))
	defer server.Close()

	if !IsRunning(server.URL) {
		t.Fatalf("expected server to be running")
	}
	if IsRunning("") {
		t.Fatalf("empty base url is never running")
	}
	if !WaitForStart(context.Background(), server.URL, nil) {
		t.Fatalf("expected WaitForStart to succeed")
	}
}
