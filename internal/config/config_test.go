package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsarma/mailblast/internal/pipeline"
)

func lookupFrom(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{"RESEND_API_KEY": "re_123"}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "resend", cfg.EmailProvider)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BatchDelay)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 30*time.Second, cfg.SendTimeout)
	assert.Equal(t, time.Second, cfg.NotifyChunkDelay)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Zero(t, cfg.ScheduleInterval)
	assert.False(t, cfg.Dedup)
	assert.False(t, cfg.TelegramEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"EMAIL_PROVIDER":        "Mailersend",
		"MAILERSEND_API_KEY":    "mlsn",
		"BATCH_SIZE":            "10",
		"BATCH_DELAY_MS":        "250",
		"MAX_RETRIES":           "5",
		"DEDUP_RECIPIENTS":      "true",
		"RECIPIENT_SPLIT_COMMA": "1",
		"TG_TOKEN":              "123:abc",
		"TG_ID":                 "-100987",
		"SCHEDULE_INTERVAL":     "15m",
		"CORS_ALLOWED_ORIGINS":  "https://a.example.com, https://b.example.com,",
	}))
	require.NoError(t, err)

	assert.Equal(t, "mailersend", cfg.EmailProvider)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.BatchDelay)
	assert.Equal(t, 5, cfg.RetryPolicy().MaxAttempts)
	assert.True(t, cfg.PipelineOptions().Parse.Dedup)
	assert.True(t, cfg.PipelineOptions().Parse.SplitComma)
	assert.Equal(t, "-100987", cfg.TelegramConfig().ChatID)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, 15*time.Minute, cfg.ScheduleInterval)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestFromEnv_ChatIDPrefersNewName(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"RESEND_API_KEY": "re_123",
		"TG_TOKEN":       "123:abc",
		"TG_CHAT_ID":     "111",
		"TG_ID":          "222",
	}))
	require.NoError(t, err)
	assert.Equal(t, "111", cfg.TelegramChatID)
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		setting string
	}{
		{"missing resend key", map[string]string{}, "RESEND_API_KEY"},
		{"unknown provider", map[string]string{"EMAIL_PROVIDER": "pigeon"}, "EMAIL_PROVIDER"},
		{"mailgun without key", map[string]string{"EMAIL_PROVIDER": "mailgun"}, "MAILGUN_API_KEY"},
		{"smtp without host", map[string]string{"EMAIL_PROVIDER": "smtp"}, "SMTP_HOST"},
		{"smtp bad port", map[string]string{"EMAIL_PROVIDER": "smtp", "SMTP_HOST": "mail", "SMTP_PORT": "25"}, "SMTP_PORT"},
		{"non-numeric batch size", map[string]string{"RESEND_API_KEY": "k", "BATCH_SIZE": "lots"}, "BATCH_SIZE"},
		{"zero batch size", map[string]string{"RESEND_API_KEY": "k", "BATCH_SIZE": "0"}, "BATCH_SIZE"},
		{"zero retries", map[string]string{"RESEND_API_KEY": "k", "MAX_RETRIES": "0"}, "MAX_RETRIES"},
		{"bad bool", map[string]string{"RESEND_API_KEY": "k", "DEDUP_RECIPIENTS": "maybe"}, "DEDUP_RECIPIENTS"},
		{"bad sender", map[string]string{"RESEND_API_KEY": "k", "FROM_EMAIL": "nobody"}, "FROM_EMAIL"},
		{"bad telegram token", map[string]string{"RESEND_API_KEY": "k", "TG_TOKEN": "abc", "TG_CHAT_ID": "1"}, "TG_TOKEN/TG_CHAT_ID"},
		{"bad schedule", map[string]string{"RESEND_API_KEY": "k", "SCHEDULE_INTERVAL": "daily"}, "SCHEDULE_INTERVAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(lookupFrom(tt.vars))
			require.Error(t, err)
			var ce *pipeline.ConfigurationError
			require.True(t, errors.As(err, &ce), "got %T", err)
			assert.Equal(t, tt.setting, ce.Setting)
		})
	}
}

func TestFromEnv_SenderWithDisplayName(t *testing.T) {
	_, err := FromEnv(lookupFrom(map[string]string{"RESEND_API_KEY": "k", "FROM_EMAIL": "Ops <ops@example.com>"}))
	assert.NoError(t, err)
}

func TestLoad_ReadsProcessEnvironment(t *testing.T) {
	t.Setenv("RESEND_API_KEY", "re_env")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "re_env", cfg.ProviderConfig(nil).Resend.APIKey)
}
