package sdk

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/poco-ai/poco-console/internals/timeouts"
)

const (
	DefaultPingTimeout = timeouts.Probe
	startInitialDelay  = 200 * time.Millisecond
	startAttempts      = 8
)

var errNotReady = errors.New("server not ready")

type InfoLogger interface {
	Info(msg string, args ...any)
}

func IsRunning(baseURL string) bool {
	return IsRunningWithTimeout(baseURL, DefaultPingTimeout)
}

func IsRunningWithTimeout(baseURL string, timeout time.Duration) bool {
	if baseURL == "" {
		return false
	}
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client := NewClient(
		WithBaseURL(baseURL),
		WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	_, err := client.Version(ctx)
	return err == nil
}

// WaitForStart polls the version endpoint with exponential backoff until
// the server answers or the attempts run out.
func WaitForStart(ctx context.Context, baseURL string, logger InfoLogger) bool {
	backoff := retry.WithMaxRetries(startAttempts, retry.NewExponential(startInitialDelay))
	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if logger != nil {
			logger.Info("Waiting for server to start", "attempt", attempt)
		}
		attempt++
		if IsRunning(baseURL) {
			return nil
		}
		return retry.RetryableError(errNotReady)
	})
	return err == nil
}
