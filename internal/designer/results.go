package designer

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/DD-DeCaF/metabolic-ninja/pkg/pathway"
	"github.com/DD-DeCaF/metabolic-ninja/plugin/shared"
)

// The co-factor swap optimization exchanges the NAD(H) pair for NADP(H) or
// the other way around, in BiGG notation.
var (
	swapSource = []string{"nad_c", "nadh_c"}
	swapTarget = []string{"nadp_c", "nadph_c"}
)

// Manipulation is one change a design applies to a reaction. Flux
// modulations carry a direction with the fold change and target flux;
// co-factor swaps carry the swapped metabolite pairs instead.
type Manipulation struct {
	ID        string   `json:"id"`
	Direction string   `json:"direction,omitempty"`
	Score     *float64 `json:"score,omitempty"`
	Value     *float64 `json:"value,omitempty"`
	From      []string `json:"from,omitempty"`
	To        []string `json:"to,omitempty"`
}

// TargetAnnotation describes a targeted reaction for display. The
// differential FVA flags are only set on rows produced by that method.
type TargetAnnotation struct {
	Name              string `json:"name"`
	Subsystem         string `json:"subsystem"`
	GPR               string `json:"gpr"`
	Definition        string `json:"definition_of_stoichiometry"`
	FluxReversal      *bool  `json:"flux_reversal,omitempty"`
	SuddenlyEssential *bool  `json:"suddenly_essential,omitempty"`
	Knockout          *bool  `json:"knockout,omitempty"`
}

// DesignRow is one proposed strain design. Reactions and metabolites are
// referenced by id; their definitions live in the report's shared maps.
type DesignRow struct {
	ID                    string                      `json:"id"`
	Knockouts             []string                    `json:"knockouts"`
	Manipulations         []Manipulation              `json:"manipulations"`
	HeterologousReactions []string                    `json:"heterologous_reactions"`
	SyntheticReactions    []string                    `json:"synthetic_reactions"`
	ExoticCofactors       []string                    `json:"exotic_cofactors"`
	Fitness               *float64                    `json:"fitness"`
	Yield                 *float64                    `json:"yield"`
	Product               *float64                    `json:"product"`
	Biomass               *float64                    `json:"biomass"`
	Method                string                      `json:"method"`
	Targets               map[string]TargetAnnotation `json:"targets"`
}

// Report is the document stored on the job row when the workflow succeeds.
// Target is the product demand reaction of the first predicted pathway.
type Report struct {
	DiffFVA      []DesignRow                   `json:"diff_fva"`
	OptGene      []DesignRow                   `json:"opt_gene"`
	CofactorSwap []DesignRow                   `json:"cofactor_swap"`
	Reactions    map[string]pathway.Reaction   `json:"reactions"`
	Metabolites  map[string]pathway.Metabolite `json:"metabolites"`
	Target       string                        `json:"target"`
}

func NewReport() *Report {
	return &Report{
		DiffFVA:      []DesignRow{},
		OptGene:      []DesignRow{},
		CofactorSwap: []DesignRow{},
		Reactions:    map[string]pathway.Reaction{},
		Metabolites:  map[string]pathway.Metabolite{},
	}
}

// AddDifferentialFVA appends one row per differential FVA design. Knockout
// targets are listed separately from flux modulations, and every target is
// annotated for display.
func (r *Report) AddDifferentialFVA(model *pathway.Model, pw pathway.Pathway, designs []shared.Design, cofactors []string) error {
	r.register(model, pw, cofactors)
	heterologous := reactionIDs(pw.Reactions)
	synthetic := reactionIDs(pathway.FindSyntheticReactions(pw))
	index := indexPathway(model, pw)
	names := metaboliteNamer(model, pw)

	for _, design := range designs {
		knockouts := []string{}
		manipulations := []Manipulation{}
		targets := make(map[string]TargetAnnotation, len(design.Targets))

		for _, target := range design.Targets {
			annotation, err := annotate(index, names, target.ID)
			if err != nil {
				return err
			}
			annotation.FluxReversal = boolRef(target.FluxReversal)
			annotation.SuddenlyEssential = boolRef(target.SuddenlyEssential)
			annotation.Knockout = boolRef(target.Knockout)
			targets[target.ID] = annotation

			if target.Knockout {
				knockouts = append(knockouts, target.ID)
				continue
			}
			entry, err := manipulation(target)
			if err != nil {
				return err
			}
			manipulations = append(manipulations, entry)
		}

		r.DiffFVA = append(r.DiffFVA, DesignRow{
			ID:                    uuid.NewString(),
			Knockouts:             knockouts,
			Manipulations:         manipulations,
			HeterologousReactions: heterologous,
			SyntheticReactions:    synthetic,
			ExoticCofactors:       cofactors,
			Fitness:               nullable(design.Fitness),
			Yield:                 nullable(design.Yield),
			Product:               nullable(design.Product),
			Biomass:               nullable(design.Biomass),
			Method:                methodDifferentialFVA,
			Targets:               targets,
		})
	}
	return nil
}

// AddCofactorSwaps appends one row per co-factor swap design. The swap
// direction is read off the target reaction's current co-factor pair.
func (r *Report) AddCofactorSwaps(model *pathway.Model, pw pathway.Pathway, designs []shared.Design, cofactors []string) error {
	r.register(model, pw, cofactors)
	heterologous := reactionIDs(pw.Reactions)
	synthetic := reactionIDs(pathway.FindSyntheticReactions(pw))
	index := indexPathway(model, pw)
	names := metaboliteNamer(model, pw)

	for _, design := range designs {
		manipulations := []Manipulation{}
		targets := make(map[string]TargetAnnotation, len(design.Targets))

		for _, target := range design.Targets {
			reaction, err := index.lookup(target.ID)
			if err != nil {
				return err
			}
			swap, err := swapDirection(reaction)
			if err != nil {
				return err
			}
			manipulations = append(manipulations, swap)
			targets[target.ID] = TargetAnnotation{
				Name:       reaction.Name,
				Subsystem:  reaction.Subsystem,
				GPR:        reaction.GeneReactionRule,
				Definition: reaction.BuildReactionString(names),
			}
		}

		r.CofactorSwap = append(r.CofactorSwap, DesignRow{
			ID:                    uuid.NewString(),
			Knockouts:             []string{},
			Manipulations:         manipulations,
			HeterologousReactions: heterologous,
			SyntheticReactions:    synthetic,
			ExoticCofactors:       cofactors,
			Fitness:               nullable(design.Fitness),
			Yield:                 nullable(design.Yield),
			Product:               nullable(design.Product),
			Biomass:               nullable(design.Biomass),
			Method:                methodCofactorSwap,
			Targets:               targets,
		})
	}
	return nil
}

// register records the full definitions of everything rows reference by id:
// the heterologous reactions with their metabolites, the synthetic
// reactions, and the exotic co-factors.
func (r *Report) register(model *pathway.Model, pw pathway.Pathway, cofactors []string) {
	index := pw.MetaboliteIndex()
	define := func(id string) {
		if metabolite, ok := index[id]; ok {
			r.Metabolites[id] = metabolite
			return
		}
		if metabolite, ok := model.Metabolite(id); ok {
			r.Metabolites[id] = metabolite
			return
		}
		r.Metabolites[id] = pathway.Metabolite{ID: id}
	}

	for _, reaction := range pw.Reactions {
		r.Reactions[reaction.ID] = reaction
		for id := range reaction.Metabolites {
			define(id)
		}
	}
	for _, reaction := range pathway.FindSyntheticReactions(pw) {
		r.Reactions[reaction.ID] = reaction
	}
	for _, id := range cofactors {
		define(id)
	}
}

// manipulation converts a flux modulation target to its result entry. The
// direction follows the sign of the fold change; inversions are their own
// direction because their flux changes sign rather than magnitude.
func manipulation(target shared.FluxTarget) (Manipulation, error) {
	entry := Manipulation{
		ID:    target.ID,
		Score: floatRef(target.FoldChange),
		Value: floatRef(target.Value),
	}
	if target.Inverted {
		entry.Direction = "invert"
		return entry, nil
	}
	switch {
	case target.FoldChange > 0:
		entry.Direction = "up"
	case target.FoldChange < 0:
		entry.Direction = "down"
	default:
		return Manipulation{}, fmt.Errorf("expected a non-zero fold-change for flux modulation target %q", target.ID)
	}
	return entry, nil
}

// swapDirection reports which way the co-factor pair flips for the target
// reaction.
func swapDirection(reaction pathway.Reaction) (Manipulation, error) {
	if _, ok := reaction.Metabolites[swapSource[0]]; ok {
		return Manipulation{ID: reaction.ID, From: swapSource, To: swapTarget}, nil
	}
	if _, ok := reaction.Metabolites[swapTarget[0]]; ok {
		return Manipulation{ID: reaction.ID, From: swapTarget, To: swapSource}, nil
	}
	return Manipulation{}, fmt.Errorf("neither co-factor swap partner present in predicted target reaction %q", reaction.ID)
}

// reactionIndex resolves reaction ids against the host model with the
// pathway applied, the way the optimizations see it.
type reactionIndex struct {
	model     *pathway.Model
	reactions map[string]pathway.Reaction
}

func indexPathway(model *pathway.Model, pw pathway.Pathway) *reactionIndex {
	reactions := make(map[string]pathway.Reaction)
	for _, group := range [][]pathway.Reaction{pw.Reactions, pw.Exchanges, pw.Adapters} {
		for _, reaction := range group {
			reactions[reaction.ID] = reaction
		}
	}
	reactions[pw.Product.ID] = pw.Product
	return &reactionIndex{model: model, reactions: reactions}
}

func (x *reactionIndex) lookup(id string) (pathway.Reaction, error) {
	if reaction, ok := x.reactions[id]; ok {
		return reaction, nil
	}
	if reaction, ok := x.model.Reaction(id); ok {
		return reaction, nil
	}
	return pathway.Reaction{}, fmt.Errorf("targeted reaction %q is neither in the model nor the pathway", id)
}

func annotate(index *reactionIndex, names func(string) string, id string) (TargetAnnotation, error) {
	reaction, err := index.lookup(id)
	if err != nil {
		return TargetAnnotation{}, err
	}
	return TargetAnnotation{
		Name:       reaction.Name,
		Subsystem:  reaction.Subsystem,
		GPR:        reaction.GeneReactionRule,
		Definition: reaction.BuildReactionString(names),
	}, nil
}

// metaboliteNamer resolves display names, preferring the pathway's own
// metabolite definitions over the host model's.
func metaboliteNamer(model *pathway.Model, pw pathway.Pathway) func(string) string {
	index := pw.MetaboliteIndex()
	return func(id string) string {
		if metabolite, ok := index[id]; ok && metabolite.Name != "" {
			return metabolite.Name
		}
		return model.MetaboliteName(id)
	}
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func boolRef(b bool) *bool {
	return &b
}

func floatRef(f float64) *float64 {
	return &f
}
