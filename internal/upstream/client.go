// Package upstream is the client for the external generative-AI
// service. It issues the HTTP calls, classifies failure responses into
// canonical gateway errors, and unwraps successful payloads for each of
// the three operations the gateway exposes.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/studykit/studygate/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
)

// correlationHeader is the upstream response header carrying the
// provider-side request id.
const correlationHeader = "x-request-id"

// Option configures the client.
type Option func(*Client)

// WithBaseURL sets a custom API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithModels overrides the chat model and the speech model/voice.
func WithModels(chatModel, speechModel, speechVoice string) Option {
	return func(c *Client) {
		if chatModel != "" {
			c.model = chatModel
		}
		if speechModel != "" {
			c.speechModel = speechModel
		}
		if speechVoice != "" {
			c.speechVoice = speechVoice
		}
	}
}

// Client calls the upstream API. It is safe for concurrent use.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	speechModel string
	speechVoice string
	httpClient  *http.Client
}

// New creates a client. An empty apiKey is tolerated at construction;
// every operation fails fast with MISSING_API_KEY before touching the
// network.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		model:       "gpt-4o-mini",
		speechModel: "tts-1",
		speechVoice: "alloy",
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// post issues one upstream call and returns the raw success body plus
// the upstream correlation id. Any non-2xx response is classified into a
// canonical *domain.APIError.
func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, string, error) {
	if c.apiKey == "" {
		return nil, "", domain.ErrMissingAPIKey()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", domain.ErrUpstreamUnavailable(0, "upstream request failed")
	}
	defer resp.Body.Close()

	requestID := resp.Header.Get(correlationHeader)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, requestID, domain.ErrUpstreamUnavailable(resp.StatusCode, "upstream response could not be read").
			WithRequestID(requestID)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, requestID, classify(resp.StatusCode, data, requestID)
	}

	return data, requestID, nil
}

// classify maps a non-success upstream status to a typed gateway error,
// carrying the upstream message and correlation id along.
func classify(status int, body []byte, requestID string) *domain.APIError {
	message := errorMessage(body)

	var apiErr *domain.APIError
	switch {
	case status == http.StatusTooManyRequests:
		apiErr = domain.ErrUpstreamRateLimit(status, message)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		apiErr = domain.ErrUpstreamAuth(status, message)
	case status >= 500:
		apiErr = domain.ErrUpstreamUnavailable(status, message)
	default:
		apiErr = domain.ErrUpstream(status, message)
	}
	return apiErr.WithRequestID(requestID)
}

// errorMessage pulls the human-readable message out of an upstream error
// body, falling back to the raw (truncated) body text.
func errorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 256 {
		text = text[:256]
	}
	return text
}
