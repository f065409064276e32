package pathway

import (
	"fmt"
	"regexp"
	"strconv"
)

var atomPattern = regexp.MustCompile(`([A-Z][a-z]?)([0-9]*)`)

// ParseFormula converts a chemical formula string into a map of atom counts.
// Unparseable characters are skipped.
func ParseFormula(formula string) map[string]int {
	counts := make(map[string]int)
	for _, match := range atomPattern.FindAllStringSubmatch(formula, -1) {
		count := 1
		if match[2] != "" {
			count, _ = strconv.Atoi(match[2])
		}
		counts[match[1]] = count
	}
	return counts
}

// ChemicalLinkageStrength computes the strength of chemical linkage (SCL)
// between two compounds given their atom counts: the intersection of the
// counts normalized by the greater of the two totals. Hydrogen atoms are
// ignored, a heuristic from the original publication (Zhou & Nakhleh,
// Bioinformatics 27(14), 2011). Two compounds without any heavy atoms have
// no defined linkage and yield an error.
func ChemicalLinkageStrength(countsA, countsB map[string]int) (float64, error) {
	atoms := make(map[string]bool, len(countsA)+len(countsB))
	for atom := range countsA {
		atoms[atom] = true
	}
	for atom := range countsB {
		atoms[atom] = true
	}
	delete(atoms, "H")

	var scl, totalA, totalB int
	for atom := range atoms {
		freqA := countsA[atom]
		freqB := countsB[atom]
		totalA += freqA
		totalB += freqB
		scl += min(freqA, freqB)
	}
	larger := max(totalA, totalB)
	if larger == 0 {
		return 0, fmt.Errorf("no heavy atoms in either formula")
	}
	return float64(scl) / float64(larger), nil
}
