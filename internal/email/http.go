package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of a provider's error response is kept.
const maxErrorBody = 2048

// postJSON sends payload as a JSON POST and maps any non-2xx response to a
// *ProviderError carrying the provider's own error message.
func postJSON(ctx context.Context, client *http.Client, provider, endpoint, bearer string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", provider, err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	return do(ctx, client, provider, req)
}

func do(ctx context.Context, client *http.Client, provider string, req *http.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		return classify(ctx, provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &ProviderError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(raw, resp.StatusCode),
	}
}

// errorMessage extracts a human-readable reason from a provider error body.
// Most providers answer {"message": "..."}; SendGrid uses {"errors":[{"message":...}]}.
func errorMessage(raw []byte, status int) string {
	var body struct {
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if len(body.Errors) > 0 && body.Errors[0].Message != "" {
			return body.Errors[0].Message
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return http.StatusText(status)
}

func contentKey(html bool) string {
	if html {
		return "html"
	}
	return "text"
}
