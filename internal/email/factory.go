package email

import (
	"fmt"
	"net/http"
	"strings"
)

// ProviderConfig carries the credentials for every supported provider; only
// the block matching the selected provider is read.
type ProviderConfig struct {
	Resend     ResendConfig
	Mailgun    MailgunConfig
	Mailersend MailersendConfig
	SendGrid   SendGridConfig
	SMTP       SMTPConfig

	// HTTPClient is shared by the resend, mailgun and mailersend providers. Nil
	// uses http.DefaultClient; sendgrid always uses its SDK client.
	HTTPClient *http.Client
}

// NewProvider builds the provider registered under name.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderResend:
		if cfg.Resend.APIKey == "" {
			return nil, fmt.Errorf("resend: api key is required")
		}
		p, err := NewResendProvider(cfg.Resend, cfg.HTTPClient)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderMailgun:
		if cfg.Mailgun.APIKey == "" {
			return nil, fmt.Errorf("mailgun: api key is required")
		}
		return NewMailgunProvider(cfg.Mailgun, cfg.HTTPClient), nil
	case ProviderMailersend:
		if cfg.Mailersend.APIKey == "" {
			return nil, fmt.Errorf("mailersend: api key is required")
		}
		return NewMailersendProvider(cfg.Mailersend, cfg.HTTPClient), nil
	case ProviderSendGrid:
		if cfg.SendGrid.APIKey == "" {
			return nil, fmt.Errorf("sendgrid: api key is required")
		}
		return NewSendGridProvider(cfg.SendGrid), nil
	case ProviderSMTP:
		p, err := NewSMTPProvider(cfg.SMTP)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %q", name)
	}
}
