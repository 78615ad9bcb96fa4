// Package questionsource loads question sets from a remote HTTP API.
package questionsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nexlearn/exam-engine/internal/examsession"
	"github.com/nexlearn/exam-engine/internal/questionfile"
)

const (
	// DefaultPath is the server's practice endpoint, the one payload that
	// carries the answer key.
	DefaultPath    = "/api/v1/question/practice"
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20
)

// Client fetches a question set with a bearer token. The payload must carry
// the answer key; a redacted list such as /question/list cannot feed a
// locally scored session.
type Client struct {
	baseURL string
	path    string
	client  *http.Client
}

var _ examsession.QuestionSource = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the default client, which has a 15s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithPath overrides DefaultPath.
func WithPath(path string) Option {
	return func(c *Client) { c.path = "/" + strings.TrimLeft(path, "/") }
}

// New constructs a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    DefaultPath,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadQuestions implements examsession.QuestionSource.
func (c *Client) LoadQuestions(ctx context.Context, sessionToken string) (*examsession.QuestionSet, error) {
	if strings.TrimSpace(sessionToken) == "" {
		return nil, fmt.Errorf("%w: no session token", examsession.ErrNotAuthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", examsession.ErrLoadFailure, err)
	}
	req.Header.Set("Authorization", "Bearer "+sessionToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", examsession.ErrLoadFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", examsession.ErrLoadFailure, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: server answered %d", examsession.ErrNotAuthenticated, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: server answered %d: %s", examsession.ErrLoadFailure, resp.StatusCode, snippet(body))
	}

	set, err := questionfile.ParseJSON(body)
	if err != nil {
		return nil, err
	}
	if !hasAnswerKey(set) {
		return nil, fmt.Errorf("%w: server withheld the answer key", examsession.ErrLoadFailure)
	}
	return set, nil
}

func hasAnswerKey(set *examsession.QuestionSet) bool {
	for _, q := range set.Questions {
		for _, o := range q.Options {
			if o.IsCorrect {
				return true
			}
		}
	}
	return false
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
