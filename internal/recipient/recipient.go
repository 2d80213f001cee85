// Package recipient validates email addresses and turns raw delimited text
// into an ordered list of sendable recipients.
package recipient

import (
	"regexp"
	"strings"
	"unicode"
)

// addressPattern is a cheap shape check (local@domain.tld), not RFC 5322.
// RE2's \s is ASCII only; isSpace covers the rest.
var addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValid reports whether s, once trimmed, looks like local@domain.tld with no
// whitespace anywhere.
func IsValid(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.IndexFunc(s, isSpace) >= 0 {
		return false
	}
	return addressPattern.MatchString(s)
}

// isSpace reports Unicode white space and the byte order mark.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\ufeff'
}

// ParseOptions controls how raw recipient text is split and filtered.
type ParseOptions struct {
	// SplitComma also splits on "," in addition to newlines.
	SplitComma bool
	// Dedup keeps only the first occurrence of each address (case-insensitive).
	Dedup bool
}

// Parse splits raw on newlines (and commas when configured), trims each
// piece, and drops empty or invalid pieces. Input order is preserved.
func Parse(raw string, opts ParseOptions) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	sep := func(r rune) bool {
		return r == '\n' || r == '\r' || (opts.SplitComma && r == ',')
	}
	return ParseList(strings.FieldsFunc(raw, sep), opts)
}

// ParseList applies the same trimming, validation and optional dedup to an
// already split list, e.g. a JSON array of addresses.
func ParseList(items []string, opts ParseOptions) []string {
	out := make([]string, 0, len(items))
	var seen map[string]struct{}
	if opts.Dedup {
		seen = make(map[string]struct{}, len(items))
	}
	for _, item := range items {
		addr := strings.TrimSpace(item)
		if !IsValid(addr) {
			continue
		}
		if seen != nil {
			key := strings.ToLower(addr)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, addr)
	}
	return out
}
