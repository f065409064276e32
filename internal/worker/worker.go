// Package worker consumes design jobs from the queue and runs them through
// the design workflow. Job state lives on the database row; the queue only
// carries the work order.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"gorm.io/gorm"

	"github.com/DD-DeCaF/metabolic-ninja/internal/database"
	"github.com/DD-DeCaF/metabolic-ninja/internal/designer"
	"github.com/DD-DeCaF/metabolic-ninja/internal/messaging"
	"github.com/DD-DeCaF/metabolic-ninja/internal/metrics"
	"github.com/DD-DeCaF/metabolic-ninja/internal/universal"
)

type TaskProcessor struct {
	db        *gorm.DB
	reciever  messaging.Reciever
	designer  *designer.Designer
	universal *universal.Repository
	notifier  Notifier

	concurrency int
	jobTimeout  time.Duration

	wg sync.WaitGroup
}

func NewTaskProcessor(db *gorm.DB, reciever messaging.Reciever, d *designer.Designer, repo *universal.Repository, notifier Notifier, concurrency int, jobTimeout time.Duration) *TaskProcessor {
	return &TaskProcessor{
		db:          db,
		reciever:    reciever,
		designer:    d,
		universal:   repo,
		notifier:    notifier,
		concurrency: concurrency,
		jobTimeout:  jobTimeout,
	}
}

// Start launches the worker goroutines. Each ranges over the shared task
// channel, so the broker's prefetch limit caps how many jobs are in flight.
func (proc *TaskProcessor) Start() {
	slog.Info("starting task processor", "concurrency", proc.concurrency)

	for i := 0; i < proc.concurrency; i++ {
		proc.wg.Add(1)
		go func() {
			defer proc.wg.Done()
			for task := range proc.reciever.Tasks() {
				proc.ProcessTask(task)
			}
		}()
	}
}

// Stop closes the receiver and waits for running jobs to finish. Jobs run
// for up to two hours, so the surrounding deployment must allow a matching
// termination grace period.
func (proc *TaskProcessor) Stop() {
	slog.Info("stopping task processor")

	proc.reciever.Close()
	proc.wg.Wait()
}

func (proc *TaskProcessor) ProcessTask(task messaging.Task) {
	switch task.Type() {

	case messaging.JobsQueue:
		var payload messaging.DesignTaskPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			slog.Error("error unmarshalling design task", "error", err)
			if err := task.Reject(); err != nil { // Discard malformed message
				slog.Error("error rejecting message from queue", "error", err)
			}
			return
		}
		proc.processDesignTask(payload)

	default:
		slog.Error("received unknown task type", "queue", task.Type())
		if err := task.Reject(); err != nil { // reject unknown message type
			slog.Error("error rejecting message from queue", "error", err)
		}
		return
	}

	// Acknowledge the message whether the job failed or not. Failures are
	// recorded on the job row, and requeueing a two hour optimization that
	// failed deterministically would loop forever.
	if err := task.Ack(); err != nil {
		slog.Error("error acknowledging message from queue", "error", err)
	}
}

func (proc *TaskProcessor) processDesignTask(payload messaging.DesignTaskPayload) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), proc.jobTimeout)
	defer cancel()

	slog.Info("processing design task", "job_id", payload.JobID, "product", payload.ProductName)
	database.UpdateJobStatus(ctx, proc.db, payload.JobID, database.JobStarted) //nolint:errcheck

	job, err := designer.PrepareJob(payload, proc.universal)
	if err != nil {
		proc.failJob(ctx, payload, started, &designer.StepError{Step: "prepare", Err: err})
		return
	}

	report, err := proc.designer.Run(ctx, job)
	if err != nil {
		proc.failJob(ctx, payload, started, err)
		return
	}

	// The job context may have expired by now; the final writes must still
	// go through.
	saveCtx := context.WithoutCancel(ctx)
	if err := database.SaveJobResult(saveCtx, proc.db, payload.JobID, report); err != nil {
		proc.failJob(ctx, payload, started, &designer.StepError{Step: "save", Err: err})
		return
	}

	metrics.JobsCompleted.WithLabelValues(database.JobSuccess).Inc()
	metrics.JobDuration.Observe(time.Since(started).Seconds())
	slog.Info("design task succeeded", "job_id", payload.JobID, "duration", time.Since(started))

	proc.notifyCompleted(saveCtx, payload)
}

func (proc *TaskProcessor) failJob(ctx context.Context, payload messaging.DesignTaskPayload, started time.Time, jobErr error) {
	step := "design"
	message := jobErr.Error()
	var stepErr *designer.StepError
	if errors.As(jobErr, &stepErr) {
		step = stepErr.Step
		message = stepErr.Err.Error()
	}

	slog.Error("design task failed", "job_id", payload.JobID, "step", step, "error", jobErr)
	sentry.CaptureException(jobErr)

	saveCtx := context.WithoutCancel(ctx)
	database.SaveJobFailure(saveCtx, proc.db, payload.JobID, step, message) //nolint:errcheck
	metrics.JobsCompleted.WithLabelValues(database.JobFailure).Inc()
	metrics.JobDuration.Observe(time.Since(started).Seconds())
}

func (proc *TaskProcessor) notifyCompleted(ctx context.Context, payload messaging.DesignTaskPayload) {
	if proc.notifier == nil || payload.UserEmail == "" {
		return
	}
	if err := proc.notifier.NotifyCompleted(ctx, payload); err != nil {
		// Suppress the problem so it does not mark the finished job as
		// failed, but do log a warning for potential follow-up.
		slog.Warn("unable to send email notification upon job completion", "job_id", payload.JobID, "error", err)
	}
}
