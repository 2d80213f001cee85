package email

import (
	"context"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendGridMailPath = "/v3/mail/send"

// SendGridConfig holds credentials for the SendGrid API.
type SendGridConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
}

// SendGridProvider sends email via the SendGrid v3 Mail Send API.
type SendGridProvider struct {
	cfg SendGridConfig
}

func NewSendGridProvider(cfg SendGridConfig) *SendGridProvider {
	return &SendGridProvider{cfg: cfg}
}

func (p *SendGridProvider) Send(ctx context.Context, msg Message) error {
	name, addr := splitAddress(msg.From)

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail(name, addr))
	m.Subject = msg.Subject

	personalization := mail.NewPersonalization()
	for _, to := range msg.To {
		personalization.AddTos(mail.NewEmail("", to))
	}
	m.AddPersonalizations(personalization)

	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}
	m.AddContent(mail.NewContent(contentType, msg.Body))

	// A Client carries its request body, so each send gets its own.
	client := sendgrid.NewSendClient(p.cfg.APIKey)
	if p.cfg.BaseURL != "" {
		client.BaseURL = strings.TrimRight(p.cfg.BaseURL, "/") + sendGridMailPath
	}

	resp, err := client.SendWithContext(ctx, m)
	if err != nil {
		return classify(ctx, ProviderSendGrid, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ProviderError{
			Provider:   ProviderSendGrid,
			StatusCode: resp.StatusCode,
			Message:    errorMessage([]byte(resp.Body), resp.StatusCode),
		}
	}
	return nil
}
