package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PredictionJobRequest is the body of POST /predictions. All keys are
// required. Fields are pointers so that absent keys can be told apart from
// zero values; a null project_id designates a public job.
type PredictionJobRequest struct {
	ModelID        *int64  `json:"model_id"`
	OrganismID     *int64  `json:"organism_id"`
	ProjectID      *int64  `json:"project_id"`
	ProductName    *string `json:"product_name"`
	MaxPredictions *int    `json:"max_predictions"`
	Aerobic        *bool   `json:"aerobic"`
	BiGG           *bool   `json:"bigg"`
	Rhea           *bool   `json:"rhea"`
}

// MissingFields names the required keys absent from the request body.
// project_id is exempt since null and omitted both mean a public job.
func (r PredictionJobRequest) MissingFields() []string {
	var missing []string
	if r.ModelID == nil {
		missing = append(missing, "model_id")
	}
	if r.OrganismID == nil {
		missing = append(missing, "organism_id")
	}
	if r.ProductName == nil {
		missing = append(missing, "product_name")
	}
	if r.MaxPredictions == nil {
		missing = append(missing, "max_predictions")
	}
	if r.Aerobic == nil {
		missing = append(missing, "aerobic")
	}
	if r.BiGG == nil {
		missing = append(missing, "bigg")
	}
	if r.Rhea == nil {
		missing = append(missing, "rhea")
	}
	return missing
}

// PredictionJobSummary is the list element of GET /predictions. The result
// document is omitted from listings since finished reports can run to
// megabytes.
type PredictionJobSummary struct {
	ID             int        `json:"id"`
	ProjectID      *int64     `json:"project_id"`
	OrganismID     int64      `json:"organism_id"`
	ModelID        int64      `json:"model_id"`
	TaskID         uuid.UUID  `json:"task_id"`
	ProductName    string     `json:"product_name"`
	MaxPredictions int        `json:"max_predictions"`
	Aerobic        bool       `json:"aerobic"`
	Status         string     `json:"status"`
	Created        time.Time  `json:"created"`
	Updated        *time.Time `json:"updated"`
}

// PredictionJob is the full job serialization returned for a single job and
// on job creation.
type PredictionJob struct {
	ID             int             `json:"id"`
	ProjectID      *int64          `json:"project_id"`
	OrganismID     int64           `json:"organism_id"`
	ModelID        int64           `json:"model_id"`
	TaskID         uuid.UUID       `json:"task_id"`
	ProductName    string          `json:"product_name"`
	MaxPredictions int             `json:"max_predictions"`
	Aerobic        bool            `json:"aerobic"`
	Status         string          `json:"status"`
	Created        time.Time       `json:"created"`
	Updated        *time.Time      `json:"updated"`
	Result         json.RawMessage `json:"result"`
}

// Product is one entry of the GET /products listing.
type Product struct {
	Name string `json:"name"`
}
