// Package sendgrid is a minimal client for the SendGrid v3 mail send
// endpoint, covering dynamic transactional templates only.
package sendgrid

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
)

const baseURL = "https://api.sendgrid.com"

// Address is a mail address with an optional display name.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Personalization addresses one envelope and fills the template placeholders.
type Personalization struct {
	To                  []Address      `json:"to"`
	DynamicTemplateData map[string]any `json:"dynamic_template_data,omitempty"`
}

// Mail is the request body of the mail send endpoint.
type Mail struct {
	From             Address           `json:"from"`
	TemplateID       string            `json:"template_id"`
	Personalizations []Personalization `json:"personalizations"`
}

type Client struct {
	client *resty.Client
	apiKey string
}

// NewClient returns a client authenticating with the given API key. An empty
// key disables sending altogether so that deployments without mail
// credentials keep working.
func NewClient(apiKey string) *Client {
	return &Client{client: resty.New().SetBaseURL(baseURL), apiKey: apiKey}
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Send submits the mail. SendGrid acknowledges accepted mail with 202; the
// response body carries details when it does not.
func (c *Client) Send(ctx context.Context, mail Mail) error {
	if !c.Enabled() {
		slog.Debug("sendgrid is not configured, discarding mail")
		return nil
	}

	res, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(mail).
		Post("/v3/mail/send")
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("sendgrid returned status %d: %s", res.StatusCode(), res.String())
	}
	return nil
}
