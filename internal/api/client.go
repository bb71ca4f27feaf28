// Package api is the HTTP client for the council backend.
package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"councilchat/internal/events"
	"councilchat/internal/transcript"
)

const maxErrorBody = 240

var ErrNotFound = errors.New("not found")

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.Path, e.Status, e.Body)
}

func (e *HTTPError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// CreateRequest is the body of POST /api/conversations.
type CreateRequest struct {
	SystemPrompt string `json:"system_prompt"`
	TemplateID   string `json:"template_id"`
}

type StarterQuestion struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id"`
	Severity   string `json:"severity"`
	Domain     string `json:"domain"`
	Title      string `json:"title"`
	Preview    string `json:"preview"`
}

type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type promptBody struct {
	Prompt string `json:"prompt"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	stream     *http.Client
	logger     *logrus.Entry
}

// NewClient builds a client. timeout bounds the plain request/response calls;
// streams are bounded only by their context.
func NewClient(baseURL string, timeout time.Duration, logger *logrus.Entry) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		stream:     &http.Client{},
		logger:     logger.WithField("component", "api"),
	}
}

func (c *Client) ListConversations(ctx context.Context) ([]transcript.Summary, error) {
	var out []transcript.Summary
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateConversation(ctx context.Context, req CreateRequest) (transcript.Conversation, error) {
	var out transcript.Conversation
	if err := c.do(ctx, http.MethodPost, "/api/conversations", req, &out); err != nil {
		return transcript.Conversation{}, err
	}
	return out, nil
}

func (c *Client) GetConversation(ctx context.Context, id string) (transcript.Conversation, error) {
	var out transcript.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(id), nil, &out); err != nil {
		return transcript.Conversation{}, err
	}
	return out, nil
}

func (c *Client) ListStarterQuestions(ctx context.Context) ([]StarterQuestion, error) {
	var out []StarterQuestion
	if err := c.do(ctx, http.MethodGet, "/api/starter-questions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStarterQuestion returns the full prompt text of a starter question.
func (c *Client) GetStarterQuestion(ctx context.Context, id string) (string, error) {
	var out promptBody
	if err := c.do(ctx, http.MethodGet, "/api/starter-questions/"+url.PathEscape(id), nil, &out); err != nil {
		return "", err
	}
	return out.Prompt, nil
}

func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var out []Template
	if err := c.do(ctx, http.MethodGet, "/api/templates", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTemplate returns the system prompt text of a template.
func (c *Client) GetTemplate(ctx context.Context, id string) (string, error) {
	var out promptBody
	if err := c.do(ctx, http.MethodGet, "/api/templates/"+url.PathEscape(id), nil, &out); err != nil {
		return "", err
	}
	return out.Prompt, nil
}

// SendMessageStream posts content and reads the text/event-stream response,
// calling onEvent once per decoded frame in arrival order. Frames that fail to
// decode are logged and skipped.
func (c *Client) SendMessageStream(ctx context.Context, conversationID, content string, onEvent func(events.Event)) error {
	path := "/api/conversations/" + url.PathEscape(conversationID) + "/message/stream"
	req, err := c.newRequest(ctx, http.MethodPost, path, map[string]string{"content": content})
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(req, resp); err != nil {
		return err
	}

	log := c.logger.WithField("conversation_id", conversationID)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	var frame bytes.Buffer
	flush := func() {
		if frame.Len() == 0 {
			return
		}
		ev, err := events.Decode(frame.Bytes())
		frame.Reset()
		if err != nil {
			log.WithError(err).Warn("skipping malformed event frame")
			return
		}
		onEvent(ev)
	}
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "data:"):
			if frame.Len() > 0 {
				frame.WriteByte('\n')
			}
			frame.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	flush()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(req, resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func checkStatus(req *http.Request, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	body := strings.Join(strings.Fields(string(payload)), " ")
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody-3] + "..."
	}
	return &HTTPError{
		Method: req.Method,
		Path:   req.URL.Path,
		Status: resp.StatusCode,
		Body:   body,
	}
}
