package designer

import (
	"fmt"

	"github.com/DD-DeCaF/metabolic-ninja/internal/messaging"
	"github.com/DD-DeCaF/metabolic-ninja/internal/universal"
	"github.com/DD-DeCaF/metabolic-ninja/pkg/pathway"
)

// The medium is fixed in BiGG notation until user-defined media are
// supported: glucose is the carbon source and anaerobic growth closes the
// oxygen exchange.
const (
	carbonSource   = "EX_glc__D_e"
	oxygenExchange = "EX_o2_e"
)

// Job is one accepted design task with its host model configured for
// simulation and the matching universal reaction database resolved.
type Job struct {
	messaging.DesignTaskPayload

	Model  *pathway.Model
	Source *pathway.Model
}

// PrepareJob configures the payload's metabolic model and loads the
// universal reaction database requested by the bigg/rhea flags.
func PrepareJob(payload messaging.DesignTaskPayload, repo *universal.Repository) (*Job, error) {
	source, err := repo.LoadFor(payload.BiGG, payload.Rhea)
	if err != nil {
		return nil, fmt.Errorf("resolving universal reaction database: %w", err)
	}

	model := payload.Model.ModelSerialized
	model.Biomass = payload.Model.DefaultBiomassReaction
	model.CarbonSource = carbonSource
	if !payload.Aerobic {
		for i := range model.Reactions {
			if model.Reactions[i].ID == oxygenExchange {
				model.Reactions[i].LowerBound = 0
				break
			}
		}
	}

	return &Job{DesignTaskPayload: payload, Model: &model, Source: source}, nil
}
