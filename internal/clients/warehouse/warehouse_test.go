package warehouse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrganism(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/organisms/4", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": 4, "name": "Escherichia coli", "project_id": 2}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	organism, err := client.GetOrganism(context.Background(), 4, "Bearer token")
	require.NoError(t, err)
	assert.Equal(t, int64(4), organism.ID)
	assert.Equal(t, "Escherichia coli", organism.Name)
}

func TestGetOrganismErrors(t *testing.T) {
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
		_, err := client.GetOrganism(context.Background(), 1, "")
		assert.ErrorIs(t, err, c.expected, "status %d", c.status)
		server.Close()
	}
}

func TestGetOrganismUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetOrganism(context.Background(), 1, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.NotErrorIs(t, err, ErrNotFound)
}
