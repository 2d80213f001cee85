// Package mailblast provides a Go client for the mailblast HTTP API.
//
// mailblast sends one message to a list of recipients in batches, retrying
// failed sends, and answers with a plain text report.
//
// Usage:
//
//	client := mailblast.New("https://mail.example.com", "access-token")
//
//	report, err := client.Send(ctx, mailblast.SendRequest{
//	    ToEmails: []string{"a@example.com", "b@example.com"},
//	    Subject:  "Hello",
//	    Body:     "World",
//	})
package mailblast

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Client talks to one mailblast deployment.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client. baseURL is the root URL of the deployment; token is
// its ACCESS_TOKEN and may be empty when the deployment has none.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Health checks that the server is reachable and healthy.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, "", nil)
	if err != nil {
		return nil, err
	}
	var out HealthResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- internal helpers ---

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) (*http.Request, error) {
	if query == nil {
		query = url.Values{}
	}
	if c.token != "" {
		query.Set("token", c.token)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mailblast: marshal request: %w", err)
	}
	return bytes.NewReader(b), nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("mailblast: decode response: %w", err)
	}
	return nil
}

func (c *Client) doText(req *http.Request) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", parseError(resp)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("mailblast: read response: %w", err)
	}
	return string(b), nil
}

// parseError reads a JSON {"error": ...} body or, failing that, the plain
// text body the send endpoints use.
func parseError(resp *http.Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	switch {
	case json.Unmarshal(raw, &body) == nil && body.Error != "":
		e.Message = body.Error
	case len(bytes.TrimSpace(raw)) > 0:
		e.Message = string(bytes.TrimSpace(raw))
	default:
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
