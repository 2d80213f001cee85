package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPConfig holds credentials for an SMTP server.
type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// SMTPProvider sends email via SMTP using Go's standard library.
// Port 465 uses implicit TLS; 587 upgrades with STARTTLS.
type SMTPProvider struct {
	cfg    SMTPConfig
	addr   string
	dialer *net.Dialer
}

func NewSMTPProvider(cfg SMTPConfig) (*SMTPProvider, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp: host is required")
	}
	if cfg.Port != 465 && cfg.Port != 587 {
		return nil, fmt.Errorf("smtp: unsupported port %d (use 465 or 587)", cfg.Port)
	}
	return &SMTPProvider{
		cfg:    cfg,
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		dialer: &net.Dialer{},
	}, nil
}

func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	if err := p.send(ctx, msg); err != nil {
		return classify(ctx, ProviderSMTP, p.scrub(err))
	}
	return nil
}

func (p *SMTPProvider) send(ctx context.Context, msg Message) error {
	conn, err := p.dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	tlsCfg := &tls.Config{ServerName: p.cfg.Host}
	if p.cfg.Port == 465 {
		conn = tls.Client(conn, tlsCfg)
	}

	c, err := smtp.NewClient(conn, p.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if p.cfg.Port == 587 {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsCfg); err != nil {
				return err
			}
		}
	}
	if p.cfg.Username != "" {
		auth := smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}

	// The envelope sender is the bare address; the display name stays in the header.
	_, from := splitAddress(msg.From)
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, to := range msg.To {
		if err := c.Rcpt(to); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(msg)); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// scrub removes the configured credentials from an error's text so they
// never end up in reports or logs.
func (p *SMTPProvider) scrub(err error) error {
	text := err.Error()
	replaced := text
	if p.cfg.Username != "" {
		replaced = strings.ReplaceAll(replaced, p.cfg.Username, "[smtp user]")
	}
	if p.cfg.Password != "" {
		replaced = strings.ReplaceAll(replaced, p.cfg.Password, "[smtp password]")
	}
	if replaced == text {
		return err
	}
	return fmt.Errorf("%s", replaced)
}

func buildMessage(msg Message) []byte {
	contentType := "text/plain"
	if msg.HTML {
		contentType = "text/html"
	}

	header := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: %s; charset=UTF-8\r\n\r\n",
		sanitizeHeader(msg.From),
		strings.Join(msg.To, ", "),
		sanitizeHeader(msg.Subject),
		contentType,
	)
	return []byte(header + msg.Body)
}

// sanitizeHeader strips CR/LF so a subject cannot inject extra headers.
func sanitizeHeader(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
