package reqlog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func TestFlushCollectsAttrsAndEntries(t *testing.T) {
	logger := New(slog.String("request_id", "r1"))
	logger.Info("start")
	logger.Warn("slow", slog.Int("ms", 900))
	logger.Add(slog.Int("status", 200))

	attrs := logger.Flush()
	keys := map[string]slog.Attr{}
	for _, attr := range attrs {
		keys[attr.Key] = attr
	}
	if keys["request_id"].Value.String() != "r1" {
		t.Fatalf("expected request_id attr, got %v", attrs)
	}
	if keys["status"].Value.Int64() != 200 {
		t.Fatalf("expected status attr")
	}
	entries, ok := keys["entries"]
	if !ok || len(entries.Value.Group()) != 2 {
		t.Fatalf("expected two entries, got %v", entries)
	}

	again := logger.Flush()
	for _, attr := range again {
		if attr.Key == "entries" {
			t.Fatalf("flush must drain entries")
		}
	}
}

func TestLevelFollowsWorstEntry(t *testing.T) {
	logger := New()
	if logger.Level() != slog.LevelInfo {
		t.Fatalf("expected info default")
	}
	logger.Debug("noise")
	logger.Error("boom")
	if logger.Level() != slog.LevelError {
		t.Fatalf("expected error level, got %s", logger.Level())
	}
}

func TestEmitWritesOneRecord(t *testing.T) {
	var buf bytes.Buffer
	out := slog.New(slog.NewJSONHandler(&buf, nil))
	logger := New(slog.String("path", "/sessions"))
	logger.Info("request")
	logger.Emit(context.Background(), out, "request")

	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record); err != nil {
		t.Fatalf("expected a single json record: %v (%q)", err, buf.String())
	}
	if record["path"] != "/sessions" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["entries"].(map[string]any); !ok {
		t.Fatalf("expected entries group, got %v", record["entries"])
	}
}

func TestIDsFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	ids := IDsFromRequest(req)
	if ids.RequestID == "" || ids.TraceID != ids.RequestID {
		t.Fatalf("expected generated ids, got %+v", ids)
	}

	req.Header.Set(HeaderRequestID, "req")
	req.Header.Set(HeaderTraceID, "trace")
	ids = IDsFromRequest(req)
	if ids.RequestID != "req" || ids.TraceID != "trace" {
		t.Fatalf("expected header ids, got %+v", ids)
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := New()
	ctx := WithContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatalf("expected same logger")
	}
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected detached logger")
	}
}
