package universal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFor(t *testing.T) {
	cases := []struct {
		bigg, rhea bool
		expected   Source
	}{
		{true, false, BiGG},
		{true, true, BiGGRhea},
		{false, true, Rhea},
	}
	for _, c := range cases {
		source, err := SourceFor(c.bigg, c.rhea)
		require.NoError(t, err)
		assert.Equal(t, c.expected, source)
	}

	_, err := SourceFor(false, false)
	assert.Error(t, err)
}

func writeModel(t *testing.T, dir string, source Source, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, string(source)+".json"), []byte(body), 0o644))
}

func TestRepositoryLoad(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, BiGGRhea, `{
		"id": "metanetx_universal_model_bigg_rhea",
		"metabolites": [{"id": "van_c", "name": "Vanillin", "formula": "C8H8O3"}],
		"reactions": [{"id": "MNXR1", "metabolites": {"van_c": -1}, "lower_bound": 0, "upper_bound": 1000}]
	}`)

	repo := NewRepository(dir)
	model, err := repo.Load(BiGGRhea)
	require.NoError(t, err)
	assert.Equal(t, "metanetx_universal_model_bigg_rhea", model.ID)
	require.Len(t, model.Metabolites, 1)
	assert.Equal(t, "Vanillin", model.Metabolites[0].Name)

	// The parsed model is shared on subsequent loads.
	again, err := repo.Load(BiGGRhea)
	require.NoError(t, err)
	assert.Same(t, model, again)
}

func TestRepositoryLoadFor(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, BiGG, `{"id": "metanetx_universal_model_bigg", "metabolites": [], "reactions": []}`)

	repo := NewRepository(dir)
	model, err := repo.LoadFor(true, false)
	require.NoError(t, err)
	assert.Equal(t, "metanetx_universal_model_bigg", model.ID)

	_, err = repo.LoadFor(false, false)
	assert.Error(t, err)
}

func TestRepositoryLoadMissingFile(t *testing.T) {
	repo := NewRepository(t.TempDir())
	_, err := repo.Load(Rhea)
	assert.Error(t, err)
}
