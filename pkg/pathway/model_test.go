package pathway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReactionSides(t *testing.T) {
	reaction := Reaction{
		ID: "PFK",
		Metabolites: map[string]float64{
			"atp_c": -1, "f6p_c": -1, "adp_c": 1, "fdp_c": 1, "h_c": 1,
		},
	}
	assert.Equal(t, []string{"atp_c", "f6p_c"}, reaction.Reactants())
	assert.Equal(t, []string{"adp_c", "fdp_c", "h_c"}, reaction.Products())
}

func TestBuildReactionString(t *testing.T) {
	reaction := Reaction{
		ID:          "FORMP",
		Metabolites: map[string]float64{"a_c": -2, "b_c": -1, "p_c": 1},
		UpperBound:  1000,
	}
	assert.Equal(t, "2 a_c + b_c --> p_c", reaction.BuildReactionString(nil))

	reaction.LowerBound = -1000
	assert.Equal(t, "2 a_c + b_c <=> p_c", reaction.BuildReactionString(nil))

	names := map[string]string{"a_c": "A", "b_c": "B", "p_c": "P"}
	rendered := reaction.BuildReactionString(func(id string) string { return names[id] })
	assert.Equal(t, "2 A + B <=> P", rendered)
}

func TestModelLookups(t *testing.T) {
	model := Model{
		ID:          "iJO1366",
		Metabolites: []Metabolite{{ID: "glc__D_e", Name: "D-Glucose", Formula: "C6H12O6"}},
		Reactions:   []Reaction{{ID: "EX_glc__D_e", Metabolites: map[string]float64{"glc__D_e": -1}}},
	}

	metabolite, ok := model.Metabolite("glc__D_e")
	require.True(t, ok)
	assert.Equal(t, "D-Glucose", metabolite.Name)
	_, ok = model.Metabolite("missing")
	assert.False(t, ok)

	_, ok = model.Reaction("EX_glc__D_e")
	assert.True(t, ok)

	assert.Equal(t, "D-Glucose", model.MetaboliteName("glc__D_e"))
	assert.Equal(t, "missing", model.MetaboliteName("missing"))
}

func TestPathwayProductID(t *testing.T) {
	p := straightPathway()
	id, err := p.ProductID()
	require.NoError(t, err)
	assert.Equal(t, "p_p_c", id)

	p.Product.Metabolites["extra_c"] = -1
	_, err = p.ProductID()
	assert.Error(t, err)
}
