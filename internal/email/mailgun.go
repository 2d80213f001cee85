package email

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const mailgunBaseURL = "https://api.mailgun.net/v3"

// MailgunConfig holds credentials for the Mailgun messages API.
type MailgunConfig struct {
	APIKey string `json:"api_key"`
	// Domain is the sending domain. When empty, the domain of the sender
	// address is used.
	Domain string `json:"domain,omitempty"`
	// BaseURL selects the region, e.g. https://api.eu.mailgun.net/v3.
	BaseURL string `json:"base_url,omitempty"`
}

// MailgunProvider sends email via Mailgun using a form POST with basic auth.
type MailgunProvider struct {
	cfg    MailgunConfig
	client *http.Client
}

func NewMailgunProvider(cfg MailgunConfig, client *http.Client) *MailgunProvider {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = mailgunBaseURL
	}
	return &MailgunProvider{cfg: cfg, client: client}
}

func (p *MailgunProvider) Send(ctx context.Context, msg Message) error {
	domain := p.domain(msg.From)
	if domain == "" {
		return &ProviderError{Provider: ProviderMailgun, Message: "sending domain is required"}
	}
	endpoint := fmt.Sprintf("%s/%s/messages", strings.TrimRight(p.cfg.BaseURL, "/"), domain)

	form := url.Values{}
	form.Set("from", msg.From)
	for _, to := range msg.To {
		form.Add("to", to)
	}
	form.Set("subject", msg.Subject)
	form.Set(contentKey(msg.HTML), msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("mailgun: build request: %w", err)
	}
	req.SetBasicAuth("api", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return do(ctx, p.client, ProviderMailgun, req)
}

func (p *MailgunProvider) domain(from string) string {
	if d := strings.TrimSpace(p.cfg.Domain); d != "" {
		return d
	}
	// Strip an optional display name: "Name <a@b.com>".
	if i := strings.LastIndex(from, "<"); i >= 0 {
		from = strings.TrimSuffix(from[i+1:], ">")
	}
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		return strings.TrimSpace(from[at+1:])
	}
	return ""
}
