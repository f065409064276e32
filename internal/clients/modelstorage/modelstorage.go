package modelstorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"

	"github.com/DD-DeCaF/metabolic-ninja/pkg/pathway"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Model is the model-storage service's representation of a metabolic model.
// The serialized model is passed through to the design workers untouched.
type Model struct {
	ModelSerialized        pathway.Model `json:"model_serialized"`
	DefaultBiomassReaction string        `json:"default_biomass_reaction"`
}

type Client struct {
	client *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{client: resty.New().SetBaseURL(baseURL)}
}

// GetModel retrieves a model by id, forwarding the caller's authorization
// header so that the model-storage service enforces its own access rules.
func (c *Client) GetModel(ctx context.Context, modelID int64, authorization string) (*Model, error) {
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", authorization).
		Get(fmt.Sprintf("/models/%d", modelID))
	if err != nil {
		slog.Error("unable to reach model storage", "model", modelID, "error", err)
		return nil, fmt.Errorf("model storage request failed: %w", err)
	}

	switch res.StatusCode() {
	case 401:
		return nil, fmt.Errorf("invalid credentials (%s): %w", errorMessage(res), ErrUnauthorized)
	case 403:
		return nil, fmt.Errorf("insufficient permissions to access model %d (%s): %w", modelID, errorMessage(res), ErrForbidden)
	case 404:
		return nil, fmt.Errorf("no model with id %d: %w", modelID, ErrNotFound)
	}
	if !res.IsSuccess() {
		slog.Error("model storage returned error", "model", modelID, "status_code", res.StatusCode(), "body", res.String())
		return nil, fmt.Errorf("model storage returned status %d", res.StatusCode())
	}

	var model Model
	if err := json.Unmarshal(res.Body(), &model); err != nil {
		return nil, fmt.Errorf("error parsing model storage response: %w", err)
	}
	return &model, nil
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
