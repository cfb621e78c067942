// Package gemini generates quiz questions through the Gemini
// generateContent API and validates what comes back.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mindprep/mindprep/internal/quiz"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-1.5-flash"

	// DefaultBatchSize is how many questions one generation call asks for.
	DefaultBatchSize = 5

	// The API has no cancellation contract of its own, so every call gets
	// an explicit deadline.
	defaultTimeout = 30 * time.Second
)

var (
	// ErrNoCredential means no API key is configured.
	ErrNoCredential = errors.New("gemini: no API key configured")
	// ErrRequestFailed covers transport failures and non-2xx statuses.
	ErrRequestFailed = errors.New("gemini: request failed")
	// ErrBadResponse covers every payload that cannot be turned into a
	// valid question list.
	ErrBadResponse = errors.New("gemini: unexpected response format")
)

// KeySource supplies the API credential at call time, so a key saved in
// settings takes effect without restarting anything.
type KeySource interface {
	APIKey(ctx context.Context) (string, error)
}

// Client calls the generateContent endpoint. One call, one batch, no
// retries; a failed attempt surfaces one error to the caller.
type Client struct {
	keys    KeySource
	baseURL string
	model   string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a generation client reading its credential from keys.
func NewClient(keys KeySource, opts ...Option) *Client {
	c := &Client{
		keys:    keys,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// generateRequest is the generateContent request body.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// generateResponse is the slice of the API response the client reads.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateQuestions asks for count multiple-choice questions about topic and
// returns them in the order the service produced them, with identifiers
// rewritten to "{topic}-{index}". count defaults to DefaultBatchSize.
func (c *Client) GenerateQuestions(ctx context.Context, topic string, count int) ([]quiz.Question, error) {
	if count <= 0 {
		count = DefaultBatchSize
	}

	apiKey, err := c.keys.APIKey(ctx)
	if err != nil || apiKey == "" {
		return nil, ErrNoCredential
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(topic, count)}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, respBody)
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no content in response", ErrBadResponse)
	}

	questions, err := parseQuestions(gr.Candidates[0].Content.Parts[0].Text, topic)
	if err != nil {
		return nil, err
	}

	slog.Info("questions generated", "topic", topic, "requested", count, "received", len(questions))
	return questions, nil
}

func buildPrompt(topic string, count int) string {
	return fmt.Sprintf(`Generate %d multiple-choice questions about %q in the following JSON format:
{
  "questions": [
    {
      "text": "Question text",
      "options": ["Option1", "Option2", "Option3", "Option4"],
      "correctAnswer": 0,
      "explanation": "Explanation of the correct answer",
      "topic": %q
    }
  ]
}`, count, topic, topic)
}
