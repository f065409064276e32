package pathway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormula(t *testing.T) {
	cases := []struct {
		formula  string
		expected map[string]int
	}{
		{"CHO", map[string]int{"C": 1, "H": 1, "O": 1}},
		{"C2HO", map[string]int{"C": 2, "H": 1, "O": 1}},
		{"CH3O", map[string]int{"C": 1, "H": 3, "O": 1}},
		{"CHO4", map[string]int{"C": 1, "H": 1, "O": 4}},
		{"C12HO", map[string]int{"C": 12, "H": 1, "O": 1}},
		{"CoLi3Mn11", map[string]int{"Co": 1, "Li": 3, "Mn": 11}},
		{"", map[string]int{}},
		{"(n)", map[string]int{}},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, ParseFormula(c.formula), "formula %q", c.formula)
	}
}

func TestChemicalLinkageStrength(t *testing.T) {
	cases := []struct {
		countsA  map[string]int
		countsB  map[string]int
		expected float64
	}{
		{map[string]int{}, map[string]int{"C": 1}, 0.0},
		{map[string]int{"C": 1}, map[string]int{}, 0.0},
		{map[string]int{"C": 1}, map[string]int{"C": 1}, 1.0},
		// Hydrogen must not influence the result.
		{map[string]int{"H": 1}, map[string]int{"C": 1, "H": 1}, 0.0},
		{map[string]int{"C": 1, "H": 1}, map[string]int{"H": 1}, 0.0},
		{map[string]int{"C": 1}, map[string]int{"C": 2}, 0.5},
		{map[string]int{"C": 1}, map[string]int{"C": 3}, 1.0 / 3.0},
		{map[string]int{"C": 2}, map[string]int{"C": 2, "O": 1}, 2.0 / 3.0},
		{map[string]int{"O": 2}, map[string]int{"C": 2, "O": 1}, 1.0 / 3.0},
		{map[string]int{"C": 1, "O": 1}, map[string]int{"C": 2, "O": 1}, 2.0 / 3.0},
	}
	for _, c := range cases {
		scl, err := ChemicalLinkageStrength(c.countsA, c.countsB)
		require.NoError(t, err)
		assert.InDelta(t, c.expected, scl, 1e-9, "counts %v vs %v", c.countsA, c.countsB)
	}
}

func TestChemicalLinkageStrengthNoHeavyAtoms(t *testing.T) {
	_, err := ChemicalLinkageStrength(map[string]int{}, map[string]int{})
	assert.Error(t, err)

	_, err = ChemicalLinkageStrength(map[string]int{"H": 2}, map[string]int{"H": 1})
	assert.Error(t, err)
}
