package mailblast

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// SendRequest is the body of POST /send. Empty fields fall back to the
// server's configured defaults.
type SendRequest struct {
	FromEmail string
	ToEmails  []string
	Subject   string
	Body      string
	HTML      bool
}

type sendPayload struct {
	FromEmail string `json:"fromEmail,omitempty"`
	ToEmails  string `json:"toEmails,omitempty"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body,omitempty"`
	HTML      bool   `json:"html,omitempty"`
}

// Settings are the form values stored by POST /config.
type Settings map[string]any
