package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gsarma/mailblast/internal/notify"
)

type telegramCall struct {
	path string
	body map[string]string
	at   time.Time
}

type telegramServer struct {
	mu     sync.Mutex
	calls  []telegramCall
	status int
}

func newTelegramServer(t *testing.T, status int) (*telegramServer, *httptest.Server) {
	t.Helper()
	ts := &telegramServer{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		ts.mu.Lock()
		ts.calls = append(ts.calls, telegramCall{path: r.URL.Path, body: body, at: time.Now()})
		ts.mu.Unlock()
		w.WriteHeader(ts.status)
		if ts.status >= 300 {
			_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return ts, srv
}

func TestTelegram_SendsMarkdownMessage(t *testing.T) {
	ts, srv := newTelegramServer(t, http.StatusOK)
	tg := notify.NewTelegram(notify.TelegramConfig{Token: "123:abc", ChatID: "42", BaseURL: srv.URL}, srv.Client())

	require.NoError(t, tg.Notify(context.Background(), "hello"))

	require.Len(t, ts.calls, 1)
	assert.Equal(t, "/bot123:abc/sendMessage", ts.calls[0].path)
	assert.Equal(t, "42", ts.calls[0].body["chat_id"])
	assert.Equal(t, "hello", ts.calls[0].body["text"])
	assert.Equal(t, "Markdown", ts.calls[0].body["parse_mode"])
}

func TestTelegram_EscapesAddressesWithUnderscores(t *testing.T) {
	ts, srv := newTelegramServer(t, http.StatusOK)
	tg := notify.NewTelegram(notify.TelegramConfig{Token: "123:abc", ChatID: "42", BaseURL: srv.URL}, srv.Client())

	require.NoError(t, tg.Notify(context.Background(), "❌ Failed:\njohn_doe@x.com\nError: *boom*"))

	require.Len(t, ts.calls, 1)
	assert.Equal(t, "❌ Failed:\njohn\\_doe@x.com\nError: \\*boom\\*", ts.calls[0].body["text"])
}

func TestTelegram_SplitsLongMessagesAndPacesChunks(t *testing.T) {
	ts, srv := newTelegramServer(t, http.StatusOK)
	delay := 40 * time.Millisecond
	tg := notify.NewTelegram(notify.TelegramConfig{
		Token: "123:abc", ChatID: "42", BaseURL: srv.URL, ChunkDelay: delay,
	}, srv.Client())

	text := strings.Repeat("é", notify.MaxMessageRunes*2+10)
	require.NoError(t, tg.Notify(context.Background(), text))

	require.Len(t, ts.calls, 3)
	var joined strings.Builder
	for i, c := range ts.calls {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.body["text"]), notify.MaxMessageRunes)
		joined.WriteString(c.body["text"])
		if i > 0 {
			assert.GreaterOrEqual(t, c.at.Sub(ts.calls[i-1].at), delay-15*time.Millisecond)
		}
	}
	assert.Equal(t, text, joined.String())
}

func TestTelegram_NonSuccessStatusIsNotificationError(t *testing.T) {
	_, srv := newTelegramServer(t, http.StatusBadRequest)
	tg := notify.NewTelegram(notify.TelegramConfig{Token: "123:abc", ChatID: "42", BaseURL: srv.URL}, srv.Client())

	err := tg.Notify(context.Background(), "hello")
	require.Error(t, err)

	var ne *notify.NotificationError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusBadRequest, ne.StatusCode)
	assert.Contains(t, ne.Message, "chat not found")
}

func TestTelegram_EmptyTextSendsNothing(t *testing.T) {
	ts, srv := newTelegramServer(t, http.StatusOK)
	tg := notify.NewTelegram(notify.TelegramConfig{Token: "123:abc", ChatID: "42", BaseURL: srv.URL}, srv.Client())

	require.NoError(t, tg.Notify(context.Background(), ""))
	assert.Empty(t, ts.calls)
}

func TestTelegram_TransportErrorHidesToken(t *testing.T) {
	_, srv := newTelegramServer(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	tg := notify.NewTelegram(notify.TelegramConfig{Token: "123:secret", ChatID: "42", BaseURL: url}, nil)
	err := tg.Notify(context.Background(), "hello")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "123:secret")
}

func TestMarkdownChunks(t *testing.T) {
	assert.Nil(t, notify.MarkdownChunks("", 10))
	assert.Equal(t, []string{"abc"}, notify.MarkdownChunks("abc", 10))
	assert.Equal(t, []string{"ab", "cd", "e"}, notify.MarkdownChunks("abcde", 2))
	assert.Equal(t, []string{"日本", "語"}, notify.MarkdownChunks("日本語", 2))
	assert.Equal(t, []string{"a", `\_`, "b"}, notify.MarkdownChunks("a_b", 2))
	assert.Equal(t, []string{`a\*`, `\[b`}, notify.MarkdownChunks("a*[b", 3))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `john\_doe@x.com \*bold\* \[link\] \`+"`"+`code\`+"`", notify.EscapeMarkdown("john_doe@x.com *bold* [link] `code`"))
	assert.Equal(t, "plain text", notify.EscapeMarkdown("plain text"))
}

func TestValidateTelegram(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		chatID  string
		wantErr bool
	}{
		{"numeric chat", "123:abc", "123456", false},
		{"negative group chat", "123:abc", "-100123", false},
		{"channel", "123:abc", "@my_channel", false},
		{"token without colon", "123abc", "123456", true},
		{"chat not numeric", "123:abc", "chat", true},
		{"empty chat", "123:abc", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := notify.ValidateTelegram(tt.token, tt.chatID)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type failingSink struct{ calls int }

func (f *failingSink) Notify(context.Context, string) error {
	f.calls++
	return &notify.NotificationError{Sink: "test", Message: "down"}
}

func TestBestEffort_SwallowsErrors(t *testing.T) {
	inner := &failingSink{}
	sink := notify.BestEffort(inner, zap.NewNop())

	assert.NoError(t, sink.Notify(context.Background(), "report"))
	assert.Equal(t, 1, inner.calls)
}

func TestNop(t *testing.T) {
	assert.NoError(t, notify.Nop{}.Notify(context.Background(), "anything"))
}
