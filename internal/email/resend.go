package email

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

// ResendConfig holds credentials for the Resend API.
type ResendConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
}

// ResendProvider sends email through the Resend SDK.
type ResendProvider struct {
	client *resend.Client
}

func NewResendProvider(cfg ResendConfig, httpClient *http.Client) (*ResendProvider, error) {
	client := resend.NewCustomClient(withStatusRecorder(httpClient), cfg.APIKey)
	if cfg.BaseURL != "" {
		u, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("resend: parse base url: %w", err)
		}
		client.BaseURL = u
	}
	return &ResendProvider{client: client}, nil
}

func (p *ResendProvider) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
	}
	if msg.HTML {
		params.Html = msg.Body
	} else {
		params.Text = msg.Body
	}

	var status int
	if _, err := p.client.Emails.SendWithContext(recordStatus(ctx, &status), params); err != nil {
		if status >= 300 {
			return &ProviderError{Provider: ProviderResend, StatusCode: status, Message: err.Error(), Err: err}
		}
		return classify(ctx, ProviderResend, err)
	}
	return nil
}

// The SDK reports API failures as plain errors, so the HTTP status is
// captured on the way through the transport.
type statusKey struct{}

func recordStatus(ctx context.Context, status *int) context.Context {
	return context.WithValue(ctx, statusKey{}, status)
}

type statusTransport struct {
	next http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if resp != nil {
		if status, ok := req.Context().Value(statusKey{}).(*int); ok {
			*status = resp.StatusCode
		}
	}
	return resp, err
}

// withStatusRecorder returns a copy of client whose transport records each
// response status into the request's context.
func withStatusRecorder(client *http.Client) *http.Client {
	c := &http.Client{}
	if client != nil {
		*c = *client
	}
	next := c.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	c.Transport = statusTransport{next: next}
	return c
}
