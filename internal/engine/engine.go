package engine

import (
	"context"

	"github.com/DD-DeCaF/metabolic-ninja/pkg/pathway"
	"github.com/DD-DeCaF/metabolic-ninja/plugin/shared"
)

// Engine runs the computationally heavy strain-design steps: translating a
// product name into the universal reaction database, predicting heterologous
// pathways and evaluating designs with linear programming. The production
// implementation lives in an external plugin binary; the worker owns the
// workflow around it.
type Engine interface {
	FindProduct(ctx context.Context, productName string, source *pathway.Model) (pathway.Metabolite, error)
	PredictPathways(ctx context.Context, productID string, model, source *pathway.Model, maxPredictions int) ([]pathway.Pathway, error)
	ProductionFlux(ctx context.Context, model *pathway.Model, p pathway.Pathway) (map[string]float64, error)
	DifferentialFVA(ctx context.Context, model *pathway.Model, p pathway.Pathway) ([]shared.Design, error)
	OptGene(ctx context.Context, model *pathway.Model, p pathway.Pathway) ([]shared.Design, error)
	CofactorSwap(ctx context.Context, model *pathway.Model, p pathway.Pathway) ([]shared.Design, error)
	Release()
}

// Loader creates one engine instance per design job so that a crashed or
// killed engine never affects other jobs.
type Loader interface {
	Load() (Engine, error)
}
