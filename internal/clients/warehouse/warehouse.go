package warehouse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Organism is the subset of the warehouse organism record needed to label
// design jobs and notifications.
type Organism struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Client struct {
	client *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{client: resty.New().SetBaseURL(baseURL)}
}

// GetOrganism retrieves an organism by id, forwarding the caller's
// authorization header so that the warehouse enforces its own access rules.
func (c *Client) GetOrganism(ctx context.Context, organismID int64, authorization string) (*Organism, error) {
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", authorization).
		Get(fmt.Sprintf("/organisms/%d", organismID))
	if err != nil {
		slog.Error("unable to reach warehouse", "organism", organismID, "error", err)
		return nil, fmt.Errorf("warehouse request failed: %w", err)
	}

	switch res.StatusCode() {
	case 401:
		return nil, fmt.Errorf("invalid credentials (%s): %w", errorMessage(res), ErrUnauthorized)
	case 403:
		return nil, fmt.Errorf("insufficient permissions to access organism %d (%s): %w", organismID, errorMessage(res), ErrForbidden)
	case 404:
		return nil, fmt.Errorf("no organism with id %d: %w", organismID, ErrNotFound)
	}
	if !res.IsSuccess() {
		slog.Error("warehouse returned error", "organism", organismID, "status_code", res.StatusCode(), "body", res.String())
		return nil, fmt.Errorf("warehouse returned status %d", res.StatusCode())
	}

	var organism Organism
	if err := json.Unmarshal(res.Body(), &organism); err != nil {
		return nil, fmt.Errorf("error parsing warehouse response: %w", err)
	}
	return &organism, nil
}

func errorMessage(res *resty.Response) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(res.Body(), &body); err != nil || body.Message == "" {
		return "no error message"
	}
	return body.Message
}
