package dispatch

import (
	"fmt"
	"strings"
)

// FormatReport renders r as plain text suitable for a Telegram message or an
// HTTP response body.
func FormatReport(r Report) string {
	var b strings.Builder
	b.WriteString("📊 Email dispatch report\n")
	fmt.Fprintf(&b, "Run: %s\n", r.RunID)
	fmt.Fprintf(&b, "Total: %d\n", r.Total)
	fmt.Fprintf(&b, "Succeeded: %d\n", r.SuccessCount)
	fmt.Fprintf(&b, "Failed: %d\n", r.FailureCount)
	fmt.Fprintf(&b, "Duration: %.2fs\n", r.DurationSeconds())

	b.WriteString("\n✅ Succeeded:\n")
	if len(r.Successes) == 0 {
		b.WriteString("(none)\n")
	}
	for _, s := range r.Successes {
		b.WriteString(s)
		b.WriteByte('\n')
	}

	b.WriteString("\n❌ Failed:\n")
	if len(r.Failures) == 0 {
		b.WriteString("(none)\n")
	}
	for _, f := range r.Failures {
		b.WriteString(f.Recipient)
		b.WriteByte('\n')
		fmt.Fprintf(&b, "Error: %s\n", f.Detail)
	}
	return b.String()
}

// FormatError renders a failure that stopped a run before any email was sent.
func FormatError(err error) string {
	return fmt.Sprintf("❌ Dispatch failed: %v", err)
}
