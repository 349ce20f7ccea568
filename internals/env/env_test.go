package env

import "testing"

func TestEnvDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	got := Get()
	if got.PORT != 48231 {
		t.Fatalf("expected default port 48231, got %d", got.PORT)
	}
	if got.LISTEN_ADDR != "localhost:48231" {
		t.Fatalf("expected listen addr localhost:48231, got %s", got.LISTEN_ADDR)
	}
	if got.BASE_URL != "http://localhost:48231" {
		t.Fatalf("expected base url http://localhost:48231, got %s", got.BASE_URL)
	}
	if got.LOG_LEVEL != "info" {
		t.Fatalf("expected info log level, got %q", got.LOG_LEVEL)
	}
}

func TestEnvOverridesPort(t *testing.T) {
	t.Setenv("POCO_PORT", "1234")
	Reset()
	t.Cleanup(Reset)

	got := Get()
	if got.PORT != 1234 {
		t.Fatalf("expected port 1234, got %d", got.PORT)
	}
	if got.BASE_URL != "http://localhost:1234" {
		t.Fatalf("expected base url http://localhost:1234, got %s", got.BASE_URL)
	}
}

func TestEnvBaseURLOverride(t *testing.T) {
	t.Setenv("POCO_BASE_URL", "https://poco.example.com/api/")
	Reset()
	t.Cleanup(Reset)

	got := Get()
	if got.BASE_URL != "https://poco.example.com/api" {
		t.Fatalf("expected trimmed override, got %s", got.BASE_URL)
	}
	if got.LISTEN_ADDR != "localhost:48231" {
		t.Fatalf("listen addr should still follow the port, got %s", got.LISTEN_ADDR)
	}
}
