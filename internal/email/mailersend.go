package email

import (
	"context"
	"net/http"
	"strings"
)

const mailersendEndpoint = "https://api.mailersend.com/v1/email"

// MailersendConfig holds credentials for the Mailersend API.
type MailersendConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
}

// MailersendProvider sends email via the Mailersend v1 email endpoint.
type MailersendProvider struct {
	cfg    MailersendConfig
	client *http.Client
}

func NewMailersendProvider(cfg MailersendConfig, client *http.Client) *MailersendProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &MailersendProvider{cfg: cfg, client: client}
}

func (p *MailersendProvider) Send(ctx context.Context, msg Message) error {
	to := make([]map[string]string, len(msg.To))
	for i, addr := range msg.To {
		to[i] = map[string]string{"email": addr}
	}

	name, addr := splitAddress(msg.From)
	from := map[string]string{"email": addr}
	if name != "" {
		from["name"] = name
	}

	payload := map[string]any{
		"from":    from,
		"to":      to,
		"subject": msg.Subject,
	}
	payload[contentKey(msg.HTML)] = msg.Body

	endpoint := mailersendEndpoint
	if p.cfg.BaseURL != "" {
		endpoint = strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/email"
	}
	return postJSON(ctx, p.client, ProviderMailersend, endpoint, p.cfg.APIKey, payload)
}
