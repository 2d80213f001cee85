package pipeline

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/gsarma/mailblast/internal/dispatch"
	"github.com/gsarma/mailblast/internal/recipient"
)

// Limits applied to every request.
const (
	MaxSubjectChars = 998
	MaxBodyChars    = 100000
)

// Input holds the raw values of one submission. Empty fields fall back to
// the configured Defaults.
type Input struct {
	From    string `form:"fromEmail" json:"fromEmail"`
	To      string `form:"toEmails" json:"toEmails"`
	Subject string `form:"subject" json:"subject"`
	Body    string `form:"body" json:"body"`
	HTML    bool   `form:"html" json:"html"`
}

// Defaults are the configured fallback values. To may be newline-delimited
// text or a JSON array of addresses.
type Defaults struct {
	From    string
	To      string
	Subject string
	Body    string
	HTML    bool
}

// BuildRequest merges in with defaults, validates the result and returns an
// immutable dispatch request.
func BuildRequest(in Input, defaults Defaults, opts recipient.ParseOptions) (dispatch.Request, error) {
	from := firstNonEmpty(in.From, defaults.From)
	if from == "" {
		return dispatch.Request{}, &ConfigurationError{Setting: "FROM_EMAIL", Reason: "sender address is not configured"}
	}
	if !recipient.IsValid(addressOf(from)) {
		return dispatch.Request{}, &ValidationError{Field: "fromEmail", Reason: "sender address is not a valid email"}
	}

	subject := firstNonEmpty(in.Subject, defaults.Subject)
	switch {
	case subject == "":
		return dispatch.Request{}, &ValidationError{Field: "subject", Reason: "required"}
	case utf8.RuneCountInString(subject) > MaxSubjectChars:
		return dispatch.Request{}, &ValidationError{Field: "subject", Reason: "must be at most 998 characters"}
	}

	body := in.Body
	if strings.TrimSpace(body) == "" {
		body = defaults.Body
	}
	switch {
	case strings.TrimSpace(body) == "":
		return dispatch.Request{}, &ValidationError{Field: "body", Reason: "required"}
	case utf8.RuneCountInString(body) > MaxBodyChars:
		return dispatch.Request{}, &ValidationError{Field: "body", Reason: "must be at most 100000 characters"}
	}

	recipients := parseRecipients(in.To, opts)
	if len(recipients) == 0 {
		recipients = parseRecipients(defaults.To, opts)
	}
	if len(recipients) == 0 {
		return dispatch.Request{}, &ValidationError{Field: "toEmails", Reason: "no valid recipients"}
	}

	return dispatch.NewRequest(from, subject, body, in.HTML || defaults.HTML, recipients), nil
}

// parseRecipients accepts a JSON array of addresses or delimited text.
func parseRecipients(raw string, opts recipient.ParseOptions) []string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var items []string
		if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
			return recipient.ParseList(items, opts)
		}
	}
	return recipient.Parse(raw, opts)
}

// addressOf extracts the address from "Name <addr>" sender strings.
func addressOf(from string) string {
	from = strings.TrimSpace(from)
	if i := strings.LastIndex(from, "<"); i >= 0 && strings.HasSuffix(from, ">") {
		return from[i+1 : len(from)-1]
	}
	return from
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
