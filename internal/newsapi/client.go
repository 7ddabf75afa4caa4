package newsapi

import (
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

	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://newsapi.org/v2"

// HTTPClient is the subset of *http.Client the gateway needs.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Gateway invokes one remote operation and returns its validated envelope.
type Gateway interface {
	Call(ctx context.Context, op Operation, params url.Values) (*Response, error)
}

// Client is the HTTP Gateway for NewsAPI.
type Client struct {
	httpClient HTTPClient
	baseURL    string
	apiKey     string
	log        zerolog.Logger
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(h HTTPClient) Option {
	return func(c *Client) { c.httpClient = h }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call performs a single request. It never retries; a failed call is
// returned to the caller as is.
func (c *Client) Call(ctx context.Context, op Operation, params url.Values) (*Response, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	if q.Get("language") == "" {
		q.Set("language", DefaultLanguage)
	}

	endpoint := c.baseURL + "/" + op.Path() + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", op, err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("operation", op.String()).Str("query", q.Encode()).Msg("calling News API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling News API %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", op, err)
	}

	page, err := decode(op, body)
	if err != nil {
		if resp.StatusCode != http.StatusOK && !errors.Is(err, ErrRemoteStatus) {
			return nil, &RemoteStatusError{
				Operation:  op,
				HTTPStatus: resp.StatusCode,
				Status:     "error",
				Message:    snippet(body),
			}
		}
		var statusErr *RemoteStatusError
		if errors.As(err, &statusErr) {
			statusErr.HTTPStatus = resp.StatusCode
		}
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteStatusError{Operation: op, HTTPStatus: resp.StatusCode, Status: page.Status}
	}

	c.log.Debug().
		Str("operation", op.String()).
		Int("total_results", page.TotalResults).
		Int("items", page.Len()).
		Msg("News API page received")
	return page, nil
}

// decode parses a response body. Like a falsy envelope, an empty body, JSON
// null or an empty object is an empty response.
func decode(op Operation, body []byte) (*Response, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", op, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	var page Response
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", op, err)
	}
	if err := Validate(op, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
