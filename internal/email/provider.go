package email

import (
	"context"
	"net/mail"
	"strings"
)

// Provider names accepted by NewProvider.
const (
	ProviderResend     = "resend"
	ProviderMailgun    = "mailgun"
	ProviderMailersend = "mailersend"
	ProviderSendGrid   = "sendgrid"
	ProviderSMTP       = "smtp"
)

// Message holds the fields needed to send an email.
type Message struct {
	To      []string `json:"to"`
	From    string   `json:"from"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	HTML    bool     `json:"html"`
}

// Provider defines the interface each email provider must implement.
// A call is one attempt: it either delivers msg or returns a *ProviderError
// or *TimeoutError describing why it did not.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

// splitAddress separates an optional display name from an address, so
// "Team <team@x.com>" yields ("Team", "team@x.com"). Input that does not parse
// is returned as the address.
func splitAddress(s string) (name, addr string) {
	if a, err := mail.ParseAddress(s); err == nil {
		return a.Name, a.Address
	}
	return "", strings.TrimSpace(s)
}
