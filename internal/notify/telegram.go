package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTelegramBaseURL = "https://api.telegram.org"
	DefaultChunkDelay      = time.Second
	DefaultNotifyTimeout   = 30 * time.Second
)

// MaxMessageRunes is Telegram's limit for one sendMessage text.
const MaxMessageRunes = 4096

var chatIDPattern = regexp.MustCompile(`^(-?\d+|@[A-Za-z0-9_]{5,})$`)

// ValidateTelegram checks the bot token and chat id formats.
func ValidateTelegram(token, chatID string) error {
	if !strings.Contains(token, ":") {
		return errors.New("bot token must look like <id>:<secret>")
	}
	if !chatIDPattern.MatchString(chatID) {
		return errors.New("chat id must be numeric or @channel")
	}
	return nil
}

type TelegramConfig struct {
	Token   string
	ChatID  string
	BaseURL string
	// ChunkDelay is the minimum gap between consecutive sendMessage calls.
	ChunkDelay time.Duration
	// Timeout bounds each sendMessage call.
	Timeout time.Duration
}

// Telegram posts messages through the Bot API sendMessage method.
type Telegram struct {
	cfg     TelegramConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewTelegram(cfg TelegramConfig, client *http.Client) *Telegram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTelegramBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ChunkDelay < 0 {
		cfg.ChunkDelay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultNotifyTimeout
	}
	if client == nil {
		client = &http.Client{}
	}
	limit := rate.Inf
	if cfg.ChunkDelay > 0 {
		limit = rate.Every(cfg.ChunkDelay)
	}
	return &Telegram{cfg: cfg, client: client, limiter: rate.NewLimiter(limit, 1)}
}

// Notify sends text literally: Markdown entity characters are escaped and the
// result is split into chunks of at most MaxMessageRunes runes. Delivery stops
// at the first chunk that fails.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	for i, chunk := range MarkdownChunks(text, MaxMessageRunes) {
		if err := t.limiter.Wait(ctx); err != nil {
			return &NotificationError{Sink: "telegram", Message: "waiting to send chunk", Err: err}
		}
		if err := t.send(ctx, chunk); err != nil {
			return fmt.Errorf("chunk %d: %w", i+1, err)
		}
	}
	return nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) send(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	body, err := json.Marshal(sendMessageRequest{ChatID: t.cfg.ChatID, Text: text, ParseMode: "Markdown"})
	if err != nil {
		return &NotificationError{Sink: "telegram", Message: "encoding request", Err: err}
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.BaseURL, t.cfg.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &NotificationError{Sink: "telegram", Message: "building request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The token is part of the URL; keep it out of the error text.
		msg := strings.ReplaceAll(err.Error(), t.cfg.Token, "***")
		return &NotificationError{Sink: "telegram", Message: msg, Err: errors.Unwrap(err)}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed sendMessageResponse
	_ = json.Unmarshal(raw, &parsed)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := parsed.Description
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &NotificationError{Sink: "telegram", StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}

// markdownSpecial holds the characters legacy Markdown parses as entity
// delimiters.
const markdownSpecial = "_*`["

// EscapeMarkdown backslash-escapes every legacy Markdown entity character.
func EscapeMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(markdownSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MarkdownChunks escapes text like EscapeMarkdown and splits the result into
// pieces of at most size runes. An escape is never separated from the
// character it escapes. Empty text yields no chunks.
func MarkdownChunks(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size < 2 {
		size = MaxMessageRunes
	}
	var (
		chunks []string
		b      strings.Builder
		n      int
	)
	for _, r := range text {
		special := strings.ContainsRune(markdownSpecial, r)
		width := 1
		if special {
			width = 2
		}
		if n+width > size {
			chunks = append(chunks, b.String())
			b.Reset()
			n = 0
		}
		if special {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
		n += width
	}
	return append(chunks, b.String())
}
