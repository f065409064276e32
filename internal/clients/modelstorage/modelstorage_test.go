package modelstorage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/17", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model_serialized": {
				"id": "iJO1366",
				"metabolites": [{"id": "glc__D_e", "name": "D-Glucose", "formula": "C6H12O6"}],
				"reactions": [{"id": "EX_glc__D_e", "metabolites": {"glc__D_e": -1}, "lower_bound": -10, "upper_bound": 1000}]
			},
			"default_biomass_reaction": "BIOMASS_Ec_iJO1366_core_53p95M"
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	model, err := client.GetModel(context.Background(), 17, "Bearer token")
	require.NoError(t, err)
	assert.Equal(t, "iJO1366", model.ModelSerialized.ID)
	assert.Equal(t, "BIOMASS_Ec_iJO1366_core_53p95M", model.DefaultBiomassReaction)
	require.Len(t, model.ModelSerialized.Reactions, 1)
	assert.Equal(t, -10.0, model.ModelSerialized.Reactions[0].LowerBound)
}

func TestGetModelErrors(t *testing.T) {
	cases := []struct {
		status   int
		body     string
		expected error
	}{
		{http.StatusUnauthorized, `{"message": "expired token"}`, ErrUnauthorized},
		{http.StatusForbidden, `{"message": "not a member"}`, ErrForbidden},
		{http.StatusNotFound, `{}`, ErrNotFound},
	}
	for _, c := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(c.status)
			w.Write([]byte(c.body))
		}))
		client := NewClient(server.URL)
		_, err := client.GetModel(context.Background(), 1, "")
		assert.ErrorIs(t, err, c.expected, "status %d", c.status)
		server.Close()
	}
}

func TestGetModelUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetModel(context.Background(), 1, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrNotFound)
}
