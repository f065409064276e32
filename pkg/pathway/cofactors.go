package pathway

import (
	"log/slog"
	"math"
	"sort"
)

// IdentifyExoticCofactors walks a heterologous pathway backwards from the
// product and identifies all non-native co-factors. At every step the
// precursor is the substrate with the strongest chemical linkage to the
// current target; all other non-adapted substrates and by-products are
// candidate co-factors. The flux distribution must come from maximizing the
// pathway's product demand; fluxes at or below threshold are treated as
// zero.
//
// The walk assumes a linear pathway and will likely be incorrect for
// branching ones.
func IdentifyExoticCofactors(p Pathway, flux map[string]float64, threshold float64) ([]string, error) {
	target, err := p.ProductID()
	if err != nil {
		return nil, err
	}
	adapted := p.AdaptedSources()
	index := p.MetaboliteIndex()

	atomCounts := make(map[string]map[string]int)
	countsFor := func(id string) map[string]int {
		counts, ok := atomCounts[id]
		if !ok {
			counts = ParseFormula(index[id].Formula)
			atomCounts[id] = counts
		}
		return counts
	}

	seen := make(map[string]bool)
	var queue []Reaction
	enqueue := func(metaboliteID string) {
		for _, reaction := range p.Reactions {
			if reaction.Metabolites[metaboliteID] != 0 && !seen[reaction.ID] {
				queue = append(queue, reaction)
			}
		}
	}
	enqueue(target)

	exotic := make(map[string]bool)
	for len(queue) > 0 {
		reaction := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if seen[reaction.ID] {
			continue
		}
		seen[reaction.ID] = true

		value := flux[reaction.ID]
		if math.Abs(value) <= threshold {
			slog.Warn("no flux through heterologous reaction", "reaction", reaction.ID)
			continue
		}
		substrates, products := reaction.Reactants(), reaction.Products()
		if value < 0 {
			substrates, products = products, substrates
		}
		for _, id := range products {
			if id != target && !adapted[id] {
				exotic[id] = true
			}
		}
		if len(substrates) == 0 {
			continue
		}

		// With one substrate, there is no doubt that it is not a co-factor.
		// With multiple, the strongest chemical linkage to the current
		// target marks the precursor and weeds out the co-factors.
		next := substrates[0]
		if len(substrates) > 1 {
			targetCounts := countsFor(target)
			best := math.Inf(-1)
			for _, id := range substrates {
				// Compounds without heavy atoms cannot be ranked.
				scl, err := ChemicalLinkageStrength(countsFor(id), targetCounts)
				if err != nil {
					scl = 0
				}
				if scl > best || (scl == best && id > next) {
					best = scl
					next = id
				}
			}
			slog.Debug("picked pathway precursor", "metabolite", next, "scl", best)
			for _, id := range substrates {
				if id != next && !adapted[id] {
					exotic[id] = true
				}
			}
		}
		target = next
		enqueue(target)
	}

	cofactors := make([]string, 0, len(exotic))
	for id := range exotic {
		cofactors = append(cofactors, id)
	}
	sort.Strings(cofactors)
	return cofactors, nil
}

// FindSyntheticReactions returns the exchange reactions which supply or
// drain compounds foreign to the host, plus the product demand itself.
// Products of adapter reactions are native compounds by definition.
func FindSyntheticReactions(p Pathway) []Reaction {
	foreign := make(map[string]bool)
	for _, reaction := range p.Reactions {
		for id := range reaction.Metabolites {
			foreign[id] = true
		}
	}
	for id := range p.AdaptedSources() {
		delete(foreign, id)
	}

	synthetic := map[string]Reaction{p.Product.ID: p.Product}
	for _, exchange := range p.Exchanges {
		foreignOnly := true
		for _, id := range exchange.Reactants() {
			if !foreign[id] {
				foreignOnly = false
				break
			}
		}
		if foreignOnly {
			synthetic[exchange.ID] = exchange
		}
	}

	ids := make([]string, 0, len(synthetic))
	for id := range synthetic {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	reactions := make([]Reaction, 0, len(ids))
	for _, id := range ids {
		reactions = append(reactions, synthetic[id])
	}
	return reactions
}
