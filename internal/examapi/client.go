// Package examapi fetches exam questions from the mock-test API.
//
// Fetching is two dependent POST requests: start-exam opens a session and
// lists question IDs, then exam/questions returns the question bodies for
// that session.
package examapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Endpoint paths, relative to the base URL.
const (
	startExamPath = "/mock-test/start-exam"
	questionsPath = "/exam/questions"
)

const (
	// DefaultTimeout bounds each request when Config.Timeout is zero.
	DefaultTimeout = 30 * time.Second
	// maxBodySize caps a response body (32MB; question payloads embed images).
	maxBodySize = 32 << 20
	// maxErrorBody is how much of an error response is kept in StatusError.
	maxErrorBody = 512
)

// Config configures a Client.
type Config struct {
	BaseURL    string        // e.g. https://api.example.com/v1, no trailing slash needed
	Token      string        // bearer token
	Timeout    time.Duration // per request; 0 means DefaultTimeout
	HTTPClient *http.Client  // nil means a client with Timeout
	Logger     *zap.Logger   // nil means no logging
}

// Client talks to the exam API. It is safe for sequential use.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
	maxBody int64 // response bodies above this are rejected
}

// Session is an opened exam.
type Session struct {
	// ID is the session id as text.
	ID string
	// QuestionIDs is the comma-separated question id list.
	QuestionIDs string

	// rawID is the session id exactly as the API sent it, echoed back in
	// the questions request.
	rawID json.RawMessage
}

// startExamResponse is the subset of the start-exam body we use.
type startExamResponse struct {
	ExamSessionID json.RawMessage   `json:"examSessionId"`
	Questions     []json.RawMessage `json:"questions"`
}

// questionsRequest is the body of the questions request.
type questionsRequest struct {
	SessionID   json.RawMessage `json:"sessionID"`
	QuestionIDs string          `json:"questionIDs"`
}

// NewClient creates a Client. BaseURL is required.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: base URL is empty", ErrConfig)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		baseURL: base,
		token:   cfg.Token,
		http:    httpClient,
		log:     log.With(zap.String("component", "examapi")),
		maxBody: maxBodySize,
	}, nil
}

// StartExam opens an exam session and lists its question IDs.
func (c *Client) StartExam(ctx context.Context) (*Session, error) {
	body, err := c.post(ctx, StageStartExam, startExamPath, nil)
	if err != nil {
		return nil, err
	}

	var resp startExamResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, c.fail(StageStartExam, startExamPath, fmt.Errorf("%w: %v", ErrDecode, err))
	}

	ids := make([]string, 0, len(resp.Questions))
	for _, raw := range resp.Questions {
		ids = append(ids, literalText(raw))
	}

	session := &Session{
		ID:          literalText(resp.ExamSessionID),
		QuestionIDs: strings.Join(ids, ","),
		rawID:       resp.ExamSessionID,
	}
	c.log.Debug("exam started",
		zap.String("session", session.ID),
		zap.Int("questions", len(ids)))
	return session, nil
}

// GetQuestions fetches the question bodies of a session and returns the
// raw JSON payload.
func (c *Client) GetQuestions(ctx context.Context, session *Session) ([]byte, error) {
	if session == nil || session.ID == "" {
		return nil, ErrNoSession
	}

	rawID := session.rawID
	if len(rawID) == 0 {
		encoded, err := json.Marshal(session.ID)
		if err != nil {
			return nil, fmt.Errorf("encoding session id: %w", err)
		}
		rawID = encoded
	}
	payload, err := json.Marshal(questionsRequest{SessionID: rawID, QuestionIDs: session.QuestionIDs})
	if err != nil {
		return nil, fmt.Errorf("encoding questions request: %w", err)
	}

	body, err := c.post(ctx, StageQuestions, questionsPath, payload)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, c.fail(StageQuestions, questionsPath, ErrDecode)
	}

	c.log.Debug("questions fetched", zap.Int("bytes", len(body)))
	return body, nil
}

// Fetch runs the whole exchange. When start-exam fails or yields no session
// id or no questions, the questions endpoint is not called and the error
// wraps ErrNoSession.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	session, err := c.StartExam(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSession, err)
	}
	if session.ID == "" || session.QuestionIDs == "" {
		c.log.Warn("start-exam returned no session or no questions",
			zap.String("session", session.ID))
		return nil, fmt.Errorf("%w: start-exam returned no session id or no questions", ErrNoSession)
	}
	return c.GetQuestions(ctx, session)
}

// post sends one authorized JSON POST and returns the 2xx body.
func (c *Client) post(ctx context.Context, stage, path string, payload []byte) ([]byte, error) {
	url := c.baseURL + path

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, c.fail(stage, url, fmt.Errorf("%w: %v", ErrRequest, err))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(stage, url, fmt.Errorf("%w: %w", ErrRequest, err))
	}
	defer resp.Body.Close()

	// One byte past the limit tells a full body from a cut one.
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, c.fail(stage, url, fmt.Errorf("%w: reading body: %w", ErrRequest, err))
	}

	c.log.Debug("exam API response",
		zap.String("stage", stage),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(stage, url, &StatusError{Code: resp.StatusCode, Body: truncate(data, maxErrorBody)})
	}
	if int64(len(data)) > c.maxBody {
		return nil, c.fail(stage, url, fmt.Errorf("%w: over %d bytes", ErrTooLarge, c.maxBody))
	}
	return data, nil
}

// fail logs err and wraps it in a FetchError.
func (c *Client) fail(stage, url string, err error) error {
	c.log.Error("exam API request failed",
		zap.String("stage", stage),
		zap.String("url", url),
		zap.Error(err))
	return &FetchError{Stage: stage, URL: url, Err: err}
}

// literalText renders a JSON scalar as text: strings unquoted, everything
// else verbatim. null and absent values are empty.
func literalText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func truncate(data []byte, n int) string {
	s := strings.TrimSpace(string(data))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
