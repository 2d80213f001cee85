// Package config loads mailblast's settings from the environment once at
// startup. Nothing outside cmd/ reads the environment directly.
package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/gsarma/mailblast/internal/dispatch"
	"github.com/gsarma/mailblast/internal/email"
	"github.com/gsarma/mailblast/internal/notify"
	"github.com/gsarma/mailblast/internal/pipeline"
	"github.com/gsarma/mailblast/internal/recipient"
	"github.com/gsarma/mailblast/internal/retry"
)

type Config struct {
	// Server
	Port    string
	Mode    string // api, worker, or empty for both
	GinMode string

	DatabaseURL        string
	AccessToken        string
	CORSAllowedOrigins []string

	// Provider
	EmailProvider    string
	ResendAPIKey     string
	MailersendAPIKey string
	MailgunAPIKey    string
	MailgunDomain    string
	MailgunBaseURL   string
	SendGridAPIKey   string
	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPass         string

	// Message defaults
	FromEmail string
	Subject   string
	Body      string
	ToEmails  string
	HTML      bool

	SplitComma bool
	Dedup      bool

	// Telegram
	TelegramToken  string
	TelegramChatID string

	// Batching and retry
	BatchSize        int
	BatchDelay       time.Duration
	Concurrency      int
	MaxRetries       int
	RetryDelay       time.Duration
	SendTimeout      time.Duration
	NotifyChunkDelay time.Duration

	ScheduleInterval time.Duration
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup and validates it.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	e := env{lookup: lookup}
	cfg := &Config{
		Port:    e.str("PORT", "8080"),
		Mode:    e.str("MODE", ""),
		GinMode: e.str("GIN_MODE", ""),

		DatabaseURL: e.str("DATABASE_URL", ""),
		AccessToken: e.str("ACCESS_TOKEN", ""),

		EmailProvider:    strings.ToLower(e.str("EMAIL_PROVIDER", email.ProviderResend)),
		ResendAPIKey:     e.str("RESEND_API_KEY", ""),
		MailersendAPIKey: e.str("MAILERSEND_API_KEY", ""),
		MailgunAPIKey:    e.str("MAILGUN_API_KEY", ""),
		MailgunDomain:    e.str("MAILGUN_DOMAIN", ""),
		MailgunBaseURL:   e.str("MAILGUN_BASE_URL", ""),
		SendGridAPIKey:   e.str("SENDGRID_API_KEY", ""),
		SMTPHost:         e.str("SMTP_HOST", ""),
		SMTPPort:         e.integer("SMTP_PORT", 587),
		SMTPUser:         e.str("SMTP_USER", ""),
		SMTPPass:         e.str("SMTP_PASS", ""),

		FromEmail: e.str("FROM_EMAIL", ""),
		Subject:   e.str("SUBJECT", ""),
		Body:      e.str("BODY", ""),
		ToEmails:  e.str("TO_EMAILS", ""),
		HTML:      e.boolean("HTML", false),

		SplitComma: e.boolean("RECIPIENT_SPLIT_COMMA", false),
		Dedup:      e.boolean("DEDUP_RECIPIENTS", false),

		TelegramToken:  e.str("TG_TOKEN", ""),
		TelegramChatID: e.str("TG_CHAT_ID", e.str("TG_ID", "")),

		BatchSize:        e.integer("BATCH_SIZE", dispatch.DefaultBatchSize),
		BatchDelay:       e.millis("BATCH_DELAY_MS", dispatch.DefaultBatchDelay),
		Concurrency:      e.integer("CONCURRENCY", 0),
		MaxRetries:       e.integer("MAX_RETRIES", retry.DefaultMaxAttempts),
		RetryDelay:       e.millis("RETRY_DELAY_MS", retry.DefaultDelay),
		SendTimeout:      e.millis("SEND_TIMEOUT_MS", dispatch.DefaultSendTimeout),
		NotifyChunkDelay: e.millis("NOTIFY_CHUNK_DELAY_MS", notify.DefaultChunkDelay),

		ScheduleInterval: e.duration("SCHEDULE_INTERVAL", 0),
	}
	if e.err != nil {
		return nil, e.err
	}

	// Parse CORS origins from a comma-separated list
	if origins := e.str("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, trimmed)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns a *pipeline.ConfigurationError naming the first bad setting.
func (c *Config) Validate() error {
	switch c.EmailProvider {
	case email.ProviderResend:
		if c.ResendAPIKey == "" {
			return missing("RESEND_API_KEY")
		}
	case email.ProviderMailersend:
		if c.MailersendAPIKey == "" {
			return missing("MAILERSEND_API_KEY")
		}
	case email.ProviderMailgun:
		if c.MailgunAPIKey == "" {
			return missing("MAILGUN_API_KEY")
		}
	case email.ProviderSendGrid:
		if c.SendGridAPIKey == "" {
			return missing("SENDGRID_API_KEY")
		}
	case email.ProviderSMTP:
		if c.SMTPHost == "" {
			return missing("SMTP_HOST")
		}
		if c.SMTPPort != 465 && c.SMTPPort != 587 {
			return invalid("SMTP_PORT", "must be 465 or 587")
		}
	default:
		return invalid("EMAIL_PROVIDER", fmt.Sprintf("unsupported provider %q", c.EmailProvider))
	}

	if c.FromEmail != "" && !recipient.IsValid(addressOf(c.FromEmail)) {
		return invalid("FROM_EMAIL", "not a valid email address")
	}
	if c.TelegramEnabled() {
		if err := notify.ValidateTelegram(c.TelegramToken, c.TelegramChatID); err != nil {
			return invalid("TG_TOKEN/TG_CHAT_ID", err.Error())
		}
	}

	switch {
	case c.BatchSize < 1:
		return invalid("BATCH_SIZE", "must be at least 1")
	case c.Concurrency < 0:
		return invalid("CONCURRENCY", "must not be negative")
	case c.MaxRetries < 1:
		return invalid("MAX_RETRIES", "must be at least 1")
	case c.BatchDelay < 0:
		return invalid("BATCH_DELAY_MS", "must not be negative")
	case c.RetryDelay < 0:
		return invalid("RETRY_DELAY_MS", "must not be negative")
	case c.SendTimeout <= 0:
		return invalid("SEND_TIMEOUT_MS", "must be positive")
	case c.NotifyChunkDelay < 0:
		return invalid("NOTIFY_CHUNK_DELAY_MS", "must not be negative")
	case c.ScheduleInterval < 0:
		return invalid("SCHEDULE_INTERVAL", "must not be negative")
	}
	return nil
}

// TelegramEnabled reports whether both Telegram settings are present.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

func (c *Config) ProviderConfig(client *http.Client) email.ProviderConfig {
	return email.ProviderConfig{
		Resend:     email.ResendConfig{APIKey: c.ResendAPIKey},
		Mailersend: email.MailersendConfig{APIKey: c.MailersendAPIKey},
		Mailgun: email.MailgunConfig{
			APIKey:  c.MailgunAPIKey,
			Domain:  c.MailgunDomain,
			BaseURL: c.MailgunBaseURL,
		},
		SendGrid: email.SendGridConfig{APIKey: c.SendGridAPIKey},
		SMTP: email.SMTPConfig{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUser,
			Password: c.SMTPPass,
		},
		HTTPClient: client,
	}
}

func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: c.MaxRetries, Delay: c.RetryDelay}
}

func (c *Config) DispatchOptions() dispatch.Options {
	return dispatch.Options{
		BatchSize:   c.BatchSize,
		BatchDelay:  c.BatchDelay,
		Concurrency: c.Concurrency,
	}
}

func (c *Config) TelegramConfig() notify.TelegramConfig {
	return notify.TelegramConfig{
		Token:      c.TelegramToken,
		ChatID:     c.TelegramChatID,
		ChunkDelay: c.NotifyChunkDelay,
	}
}

func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Defaults: pipeline.Defaults{
			From:    c.FromEmail,
			To:      c.ToEmails,
			Subject: c.Subject,
			Body:    c.Body,
			HTML:    c.HTML,
		},
		Parse: recipient.ParseOptions{SplitComma: c.SplitComma, Dedup: c.Dedup},
	}
}

func missing(setting string) error {
	return &pipeline.ConfigurationError{Setting: setting, Reason: "is required"}
}

func invalid(setting, reason string) error {
	return &pipeline.ConfigurationError{Setting: setting, Reason: reason}
}

func addressOf(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 && strings.HasSuffix(from, ">") {
		return from[i+1 : len(from)-1]
	}
	return from
}

// env reads typed values and keeps the first parse error.
type env struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *env) str(key, fallback string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (e *env) integer(key string, fallback int) int {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, "must be an integer")
		return fallback
	}
	return n
}

func (e *env) boolean(key string, fallback bool) bool {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, "must be true or false")
		return fallback
	}
	return b
}

func (e *env) millis(key string, fallback time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, "must be a number of milliseconds")
		return fallback
	}
	return time.Duration(n) * time.Millisecond
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, "must be a duration such as 15m")
		return fallback
	}
	return d
}

func (e *env) fail(key, reason string) {
	if e.err == nil {
		e.err = invalid(key, reason)
	}
}
