package mailblast

import "fmt"

// APIError is returned when the server responds with a non-success status.
// For rejected sends Message holds the server's "❌ Dispatch failed" text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mailblast: HTTP %d: %s", e.StatusCode, e.Message)
}
