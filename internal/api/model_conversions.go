package api

import (
	"encoding/json"
	"time"

	"github.com/DD-DeCaF/metabolic-ninja/internal/database"
	"github.com/DD-DeCaF/metabolic-ninja/pkg/api"
)

func convertJob(job database.DesignJob) api.PredictionJobSummary {
	return api.PredictionJobSummary{
		ID:             job.Id,
		ProjectID:      job.ProjectId,
		OrganismID:     job.OrganismId,
		ModelID:        job.ModelId,
		TaskID:         job.TaskId,
		ProductName:    job.ProductName,
		MaxPredictions: job.MaxPredictions,
		Aerobic:        job.Aerobic,
		Status:         job.Status,
		Created:        job.Created,
		Updated:        convertUpdated(job),
	}
}

func convertJobs(jobs []database.DesignJob) []api.PredictionJobSummary {
	summaries := make([]api.PredictionJobSummary, 0, len(jobs))
	for _, job := range jobs {
		summaries = append(summaries, convertJob(job))
	}
	return summaries
}

func convertJobDetail(job database.DesignJob) api.PredictionJob {
	return api.PredictionJob{
		ID:             job.Id,
		ProjectID:      job.ProjectId,
		OrganismID:     job.OrganismId,
		ModelID:        job.ModelId,
		TaskID:         job.TaskId,
		ProductName:    job.ProductName,
		MaxPredictions: job.MaxPredictions,
		Aerobic:        job.Aerobic,
		Status:         job.Status,
		Created:        job.Created,
		Updated:        convertUpdated(job),
		Result:         json.RawMessage(job.Result),
	}
}

func convertUpdated(job database.DesignJob) *time.Time {
	if !job.Updated.Valid {
		return nil
	}
	updated := job.Updated.Time
	return &updated
}
