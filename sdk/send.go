package mailblast

import (
	"bufio"
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Send runs a dispatch and returns the server's plain text report. A report
// in which every recipient failed is still a successful call; an *APIError
// means nothing was sent.
func (c *Client) Send(ctx context.Context, r SendRequest) (string, error) {
	req, err := c.sendRequest(ctx, r, nil)
	if err != nil {
		return "", err
	}
	return c.doText(req)
}

// SendStream runs a dispatch with progress streaming and calls onLine for
// every line the server writes, ending with the report.
func (c *Client) SendStream(ctx context.Context, r SendRequest, onLine func(string)) error {
	req, err := c.sendRequest(ctx, r, url.Values{"stream": {"true"}})
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		onLine(sc.Text())
	}
	return sc.Err()
}

func (c *Client) sendRequest(ctx context.Context, r SendRequest, query url.Values) (*http.Request, error) {
	body, err := jsonBody(sendPayload{
		FromEmail: r.FromEmail,
		ToEmails:  strings.Join(r.ToEmails, "\n"),
		Subject:   r.Subject,
		Body:      r.Body,
		HTML:      r.HTML,
	})
	if err != nil {
		return nil, err
	}
	return c.newRequest(ctx, http.MethodPost, "/send", query, "application/json", body)
}
