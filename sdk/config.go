package mailblast

import (
	"context"
	"net/http"
)

// GetSettings returns the stored form values, or an empty map when none
// were saved.
func (c *Client) GetSettings(ctx context.Context) (Settings, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/config", nil, "", nil)
	if err != nil {
		return nil, err
	}
	out := Settings{}
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveSettings stores form values for later visits.
func (c *Client) SaveSettings(ctx context.Context, s Settings) error {
	body, err := jsonBody(s)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/config", nil, "application/json", body)
	if err != nil {
		return err
	}
	_, err = c.doText(req)
	return err
}
