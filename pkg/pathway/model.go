package pathway

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Metabolite mirrors the metabolite entries of a serialized metabolic model
// (the cobra dict layout used by the model-storage service).
type Metabolite struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Formula     string `json:"formula"`
	Compartment string `json:"compartment,omitempty"`
	Charge      int    `json:"charge,omitempty"`
}

// Reaction mirrors the reaction entries of a serialized metabolic model.
// Metabolites maps metabolite ids to stoichiometric coefficients; negative
// coefficients are consumed, positive ones produced.
type Reaction struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Metabolites      map[string]float64 `json:"metabolites"`
	LowerBound       float64            `json:"lower_bound"`
	UpperBound       float64            `json:"upper_bound"`
	GeneReactionRule string             `json:"gene_reaction_rule"`
	Subsystem        string             `json:"subsystem,omitempty"`
}

// Reactants returns the consumed metabolite ids in stable order.
func (r Reaction) Reactants() []string {
	var ids []string
	for id, coefficient := range r.Metabolites {
		if coefficient < 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Products returns the produced metabolite ids in stable order.
func (r Reaction) Products() []string {
	var ids []string
	for id, coefficient := range r.Metabolites {
		if coefficient > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// BuildReactionString renders the stoichiometry as an equation, for example
// "atp_c + glc__D_c --> adp_c + g6p_c". The name function maps metabolite
// ids to display names and may be nil to use the ids themselves.
func (r Reaction) BuildReactionString(name func(id string) string) string {
	if name == nil {
		name = func(id string) string { return id }
	}

	side := func(ids []string) string {
		terms := make([]string, 0, len(ids))
		for _, id := range ids {
			coefficient := r.Metabolites[id]
			if coefficient < 0 {
				coefficient = -coefficient
			}
			if coefficient == 1 {
				terms = append(terms, name(id))
			} else {
				terms = append(terms, strconv.FormatFloat(coefficient, 'g', -1, 64)+" "+name(id))
			}
		}
		return strings.Join(terms, " + ")
	}

	arrow := "-->"
	switch {
	case r.LowerBound < 0 && r.UpperBound > 0:
		arrow = "<=>"
	case r.UpperBound <= 0:
		arrow = "<--"
	}

	return fmt.Sprintf("%s %s %s", side(r.Reactants()), arrow, side(r.Products()))
}

// Model is a genome-scale metabolic model in the serialized layout used by
// the model-storage service and the universal reaction databases. Biomass
// and CarbonSource are configured per job, not part of the serialization.
type Model struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Metabolites []Metabolite `json:"metabolites"`
	Reactions   []Reaction   `json:"reactions"`

	Biomass      string `json:"-"`
	CarbonSource string `json:"-"`

	metaboliteIndex map[string]int
	reactionIndex   map[string]int
}

func (m *Model) index() {
	if m.metaboliteIndex != nil {
		return
	}
	m.metaboliteIndex = make(map[string]int, len(m.Metabolites))
	for i, metabolite := range m.Metabolites {
		m.metaboliteIndex[metabolite.ID] = i
	}
	m.reactionIndex = make(map[string]int, len(m.Reactions))
	for i, reaction := range m.Reactions {
		m.reactionIndex[reaction.ID] = i
	}
}

// Metabolite looks a metabolite up by id.
func (m *Model) Metabolite(id string) (Metabolite, bool) {
	m.index()
	i, ok := m.metaboliteIndex[id]
	if !ok {
		return Metabolite{}, false
	}
	return m.Metabolites[i], true
}

// Reaction looks a reaction up by id.
func (m *Model) Reaction(id string) (Reaction, bool) {
	m.index()
	i, ok := m.reactionIndex[id]
	if !ok {
		return Reaction{}, false
	}
	return m.Reactions[i], true
}

// MetaboliteName returns the display name for a metabolite id, falling back
// to the id itself.
func (m *Model) MetaboliteName(id string) string {
	if metabolite, ok := m.Metabolite(id); ok && metabolite.Name != "" {
		return metabolite.Name
	}
	return id
}

// Pathway is one predicted heterologous route to the product. Reactions are
// the actual heterologous steps, Exchanges provide or drain intermediates,
// Adapters translate between the host's and the database's namespaces, and
// Product is the demand reaction for the final product. Metabolites carries
// the definitions of every metabolite referenced by the above.
type Pathway struct {
	Reactions   []Reaction   `json:"reactions"`
	Exchanges   []Reaction   `json:"exchanges"`
	Adapters    []Reaction   `json:"adapters"`
	Product     Reaction     `json:"product"`
	Metabolites []Metabolite `json:"metabolites"`
}

// ProductID returns the metabolite drained by the product demand reaction.
func (p Pathway) ProductID() (string, error) {
	reactants := p.Product.Reactants()
	if len(reactants) != 1 {
		return "", fmt.Errorf("product demand %q must consume exactly one metabolite, has %d", p.Product.ID, len(reactants))
	}
	return reactants[0], nil
}

// AdaptedSources returns the metabolite ids provided by the host via
// adapter reactions. Anything else occurring in the pathway is foreign.
func (p Pathway) AdaptedSources() map[string]bool {
	sources := make(map[string]bool)
	for _, adapter := range p.Adapters {
		for _, id := range adapter.Products() {
			sources[id] = true
		}
	}
	return sources
}

// MetaboliteIndex returns the pathway's metabolite definitions keyed by id.
func (p Pathway) MetaboliteIndex() map[string]Metabolite {
	index := make(map[string]Metabolite, len(p.Metabolites))
	for _, metabolite := range p.Metabolites {
		index[metabolite.ID] = metabolite
	}
	return index
}
