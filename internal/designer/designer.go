// Package designer runs the strain-design workflow for one job: find the
// product in the universal reaction database, predict heterologous pathways
// towards it and evaluate strain designs for every pathway. The linear
// programming and heuristic search live behind the engine interface; this
// package owns the workflow order and the assembly of the result document.
package designer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DD-DeCaF/metabolic-ninja/internal/engine"
	"github.com/DD-DeCaF/metabolic-ninja/pkg/pathway"
)

// Method names recorded on result rows, kept stable for the frontend.
const (
	methodDifferentialFVA = "PathwayPredictor+DifferentialFVA"
	methodCofactorSwap    = "PathwayPredictor+CofactorSwap"
)

// fluxThreshold is the solver tolerance below which a flux counts as zero.
const fluxThreshold = 1e-7

// StepError names the workflow step that failed. The step ends up in the
// stored job result so the frontend can tell the user how far the job got.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func step(name string, err error) error {
	return &StepError{Step: name, Err: err}
}

type Designer struct {
	loader engine.Loader
}

func New(loader engine.Loader) *Designer {
	return &Designer{loader: loader}
}

// Run executes the design workflow and returns the finished report. A fresh
// engine is loaded per job so that a crashed optimization cannot poison
// later jobs. Cancelling the context aborts the running engine call.
func (d *Designer) Run(ctx context.Context, job *Job) (*Report, error) {
	eng, err := d.loader.Load()
	if err != nil {
		return nil, step("engine", err)
	}
	defer eng.Release()

	slog.Info("initiating design workflow", "job_id", job.JobID, "product", job.ProductName, "model", job.Model.ID)

	product, err := eng.FindProduct(ctx, job.ProductName, job.Source)
	if err != nil {
		return nil, step("find product", err)
	}

	pathways, err := eng.PredictPathways(ctx, product.ID, job.Model, job.Source, job.MaxPredictions)
	if err != nil {
		return nil, step("predict pathways", err)
	}
	slog.Info("predicted heterologous pathways", "job_id", job.JobID, "pathways", len(pathways))

	report := NewReport()
	if len(pathways) > 0 {
		report.Target = pathways[0].Product.ID
	}

	for i, pw := range pathways {
		slog.Debug("computing production flux", "job_id", job.JobID, "pathway", i+1, "pathways", len(pathways))
		flux, err := eng.ProductionFlux(ctx, job.Model, pw)
		if err != nil {
			return nil, step("production flux", err)
		}
		cofactors, err := pathway.IdentifyExoticCofactors(pw, flux, fluxThreshold)
		if err != nil {
			return nil, step("exotic co-factors", err)
		}

		slog.Debug("running differential FVA", "job_id", job.JobID, "pathway", i+1, "pathways", len(pathways))
		designs, err := eng.DifferentialFVA(ctx, job.Model, pw)
		if err != nil {
			return nil, step("differential fva", err)
		}
		if err := report.AddDifferentialFVA(job.Model, pw, designs, cofactors); err != nil {
			return nil, step("differential fva", err)
		}

		slog.Debug("running co-factor swap optimization", "job_id", job.JobID, "pathway", i+1, "pathways", len(pathways))
		swaps, err := eng.CofactorSwap(ctx, job.Model, pw)
		if err != nil {
			return nil, step("cofactor swap", err)
		}
		if err := report.AddCofactorSwaps(job.Model, pw, swaps, cofactors); err != nil {
			return nil, step("cofactor swap", err)
		}
	}

	return report, nil
}
