package recipient_test

import (
	"reflect"
	"strings"
	"testing"
	"unicode"

	"github.com/gsarma/mailblast/internal/recipient"
)

func TestIsValid(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"a@x.com", true},
		{"  a@x.com  ", true},
		{"first.last+tag@sub.example.org", true},
		{"", false},
		{"   ", false},
		{"bad", false},
		{"a@x", false},
		{"@x.com", false},
		{"a@.com", false},
		{"a@b.c.d", true},
		{"a b@x.com", false},
		{"a@x .com", false},
		{"a@@x.com", false},
		{"a@x.com\tb", false},
		{"a\vb@x.com", false},
		{"a\u00a0b@x.com", false},
		{"a\u3000b@x.com", false},
		{"a@x\u2003y.com", false},
		{"a@x.com\u2028b", false},
		{"\ufeffa@x.com", false},
	}
	for _, tc := range cases {
		if got := recipient.IsValid(tc.in); got != tc.want {
			t.Errorf("IsValid(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParse_DropsInvalidAndKeepsOrder(t *testing.T) {
	got := recipient.Parse("a@x.com\nbad\nb@x.com", recipient.ParseOptions{})
	want := []string{"a@x.com", "b@x.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\r\n"} {
		got := recipient.Parse(in, recipient.ParseOptions{})
		if got == nil || len(got) != 0 {
			t.Errorf("Parse(%q) = %#v, want empty non-nil slice", in, got)
		}
	}
}

func TestParse_CRLFAndWhitespace(t *testing.T) {
	got := recipient.Parse("  a@x.com \r\n\r\n\tb@x.com\r\n", recipient.ParseOptions{})
	want := []string{"a@x.com", "b@x.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParse_CommaSplitting(t *testing.T) {
	raw := "a@x.com, b@x.com\nc@x.com"

	without := recipient.Parse(raw, recipient.ParseOptions{})
	if !reflect.DeepEqual(without, []string{"c@x.com"}) {
		t.Errorf("without comma split: got %v", without)
	}

	with := recipient.Parse(raw, recipient.ParseOptions{SplitComma: true})
	if !reflect.DeepEqual(with, []string{"a@x.com", "b@x.com", "c@x.com"}) {
		t.Errorf("with comma split: got %v", with)
	}
}

func TestParse_DuplicatesPreservedByDefault(t *testing.T) {
	raw := "a@x.com\nA@x.com\na@x.com"
	got := recipient.Parse(raw, recipient.ParseOptions{})
	if len(got) != 3 {
		t.Errorf("expected duplicates preserved, got %v", got)
	}

	deduped := recipient.Parse(raw, recipient.ParseOptions{Dedup: true})
	if !reflect.DeepEqual(deduped, []string{"a@x.com"}) {
		t.Errorf("expected first occurrence only, got %v", deduped)
	}
}

func TestParse_NeverReturnsInvalid(t *testing.T) {
	inputs := []string{
		"a@x.com\n\n,\n@\n x@y.z \nfoo@bar\n a b@c.d",
		strings.Repeat("ok@x.io\n bad \n", 20),
		",,,\n,,",
		"a\u3000b@x.com\nc@x.com\na\u00a0b@x.com\n\va@x\vy.com",
	}
	for _, in := range inputs {
		for _, opts := range []recipient.ParseOptions{{}, {SplitComma: true}, {Dedup: true}} {
			for _, addr := range recipient.Parse(in, opts) {
				if addr == "" || !recipient.IsValid(addr) || strings.IndexFunc(addr, unicode.IsSpace) >= 0 {
					t.Errorf("Parse returned invalid address %q", addr)
				}
			}
		}
	}
}

func TestParse_DropsUnicodeWhitespaceInside(t *testing.T) {
	got := recipient.Parse("a\u3000b@x.com\nc@x.com\nd@x\u00a0y.com", recipient.ParseOptions{})
	want := []string{"c@x.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse = %q, want %q", got, want)
	}
}

func TestParseList(t *testing.T) {
	got := recipient.ParseList([]string{" a@x.com", "", "nope", "b@x.com "}, recipient.ParseOptions{})
	want := []string{"a@x.com", "b@x.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
