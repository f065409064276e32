package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
)

func UpdateJobStatus(ctx context.Context, txn *gorm.DB, jobId int, status string) error {
	updates := map[string]any{
		"status":  status,
		"updated": sql.NullTime{Time: time.Now().UTC(), Valid: true},
	}

	if err := txn.WithContext(ctx).Model(&DesignJob{Id: jobId}).Updates(updates).Error; err != nil {
		slog.Error("error updating job status", "job_id", jobId, "status", status, "error", err)
		return err
	}
	return nil
}

// SaveJobResult stores the finished report and marks the job SUCCESS.
func SaveJobResult(ctx context.Context, txn *gorm.DB, jobId int, result any) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal job result: %w", err)
	}

	updates := map[string]any{
		"status":  JobSuccess,
		"result":  payload,
		"updated": sql.NullTime{Time: time.Now().UTC(), Valid: true},
	}

	if err := txn.WithContext(ctx).Model(&DesignJob{Id: jobId}).Updates(updates).Error; err != nil {
		slog.Error("error saving job result", "job_id", jobId, "error", err)
		return err
	}
	return nil
}

// SaveJobFailure marks the job FAILURE and records which step broke. The
// message is kept short; the full error goes to the log and Sentry.
func SaveJobFailure(ctx context.Context, txn *gorm.DB, jobId int, step, message string) error {
	payload, err := json.Marshal(map[string]string{"step": step, "message": message})
	if err != nil {
		return fmt.Errorf("could not marshal job failure: %w", err)
	}

	updates := map[string]any{
		"status":  JobFailure,
		"result":  payload,
		"updated": sql.NullTime{Time: time.Now().UTC(), Valid: true},
	}

	if err := txn.WithContext(ctx).Model(&DesignJob{Id: jobId}).Updates(updates).Error; err != nil {
		slog.Error("error saving job failure", "job_id", jobId, "error", err)
		return err
	}
	return nil
}

func GetJob(ctx context.Context, db *gorm.DB, jobId int) (DesignJob, error) {
	var job DesignJob
	if err := db.WithContext(ctx).First(&job, jobId).Error; err != nil {
		return DesignJob{}, err
	}
	return job, nil
}
