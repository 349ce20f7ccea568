package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/poco-ai/poco-console/internals/env"
	"github.com/poco-ai/poco-console/internals/schemas"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

var (
	ErrNotFound            = errors.New("not found")
	ErrShutdownUnsupported = errors.New("shutdown unsupported")
)

// APIError is a non-success envelope, or a non-2xx response without one.
type APIError struct {
	StatusCode int
	Code       schemas.ResponseCode
	Message    string
	Details    map[string][]string
}

func (e *APIError) Error() string {
	if e.Code != 0 && e.Message != "" {
		return fmt.Sprintf("%d: %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && (e.Code == schemas.CodeNotFound || e.StatusCode == http.StatusNotFound)
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

func NewClient(opts ...Option) *Client {
	envs := env.Get()
	client := &Client{
		baseURL: strings.TrimRight(envs.BASE_URL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Version(ctx context.Context) (string, error) {
	var payload struct {
		Version string `json:"version"`
	}
	if err := c.call(ctx, http.MethodGet, "/version", nil, &payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload.Version), nil
}

func (c *Client) Shutdown(ctx context.Context) error {
	err := c.call(ctx, http.MethodPost, "/shutdown", nil, nil)
	if errors.Is(err, ErrNotFound) {
		return ErrShutdownUnsupported
	}
	return err
}

// GetSession fetches a session snapshot. progressHint is the progress the
// caller already shows; the backend never goes below it.
func (c *Client) GetSession(ctx context.Context, sessionID string, progressHint int) (*schemas.ExecutionSession, error) {
	path := "/sessions/" + url.PathEscape(sessionID)
	if progressHint > 0 {
		path += "?progress=" + strconv.Itoa(progressHint)
	}
	var payload schemas.ExecutionSession
	if err := c.call(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) CreateSession(ctx context.Context, prompt string) (*schemas.ExecutionSession, error) {
	var payload schemas.ExecutionSession
	if err := c.call(ctx, http.MethodPost, "/sessions", schemas.SessionCreateRequest{Prompt: prompt}, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) SendMessage(ctx context.Context, sessionID, messageID, content string) error {
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	return c.call(ctx, http.MethodPost, path, schemas.SendMessageRequest{Content: content, MessageID: messageID}, nil)
}

// GetMessages lists messages of a session. With afterID set, only messages
// stored after that id are returned.
func (c *Client) GetMessages(ctx context.Context, sessionID, afterID string) ([]schemas.ChatMessage, error) {
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	if afterID != "" {
		path += "?after=" + url.QueryEscape(afterID)
	}
	payload := []schemas.ChatMessage{}
	if err := c.call(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetFiles returns the workspace tree of a session, or the shared tree when
// sessionID is empty.
func (c *Client) GetFiles(ctx context.Context, sessionID string) ([]schemas.FileNode, error) {
	path := "/files"
	if sessionID != "" {
		path = "/sessions/" + url.PathEscape(sessionID) + "/files"
	}
	payload := []schemas.FileNode{}
	if err := c.call(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *Client) GetWorkspaceArchive(ctx context.Context, sessionID string) (*schemas.WorkspaceArchive, error) {
	path := "/sessions/" + url.PathEscape(sessionID) + "/workspace/archive"
	var payload schemas.WorkspaceArchive
	if err := c.call(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Download streams a url (absolute, or relative to the base url) into w.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	target := rawURL
	if strings.HasPrefix(rawURL, "/") {
		target = c.baseURL + rawURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, responseError(resp)
	}
	return io.Copy(w, resp.Body)
}

func (c *Client) call(ctx context.Context, method, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}

	var envelope schemas.RawEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Code != schemas.CodeSuccess {
		return envelopeError(resp.StatusCode, envelope)
	}
	if out == nil || len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

func responseError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var envelope schemas.RawEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && (envelope.Code != 0 || envelope.Message != "") {
		return envelopeError(resp.StatusCode, envelope)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("unexpected status: %s", resp.Status)}
}

func envelopeError(status int, envelope schemas.RawEnvelope) error {
	apiErr := &APIError{StatusCode: status, Code: envelope.Code, Message: envelope.Message}
	if len(envelope.Data) > 0 {
		var details map[string][]string
		if err := json.Unmarshal(envelope.Data, &details); err == nil {
			apiErr.Details = details
		}
	}
	return apiErr
}
