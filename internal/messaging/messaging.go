package messaging

import (
	"context"
	"time"

	"github.com/DD-DeCaF/metabolic-ninja/internal/clients/modelstorage"
)

const (
	JobsQueue       = "jobs"
	RetryDelay      = 5 * time.Second
	MaxConnectRetry = 5
)

type Task interface {
	Type() string

	Payload() []byte

	Ack() error

	Nack() error

	Reject() error
}

// DesignTaskPayload is the message queued for the worker when a prediction
// job is accepted. The payload embeds the full serialized model so that
// workers never depend on the model-storage service being up.
type DesignTaskPayload struct {
	JobID     int    `json:"job_id"`
	ProjectID *int64 `json:"project_id"`

	ModelID      int64              `json:"model_id"`
	Model        modelstorage.Model `json:"model"`
	OrganismID   int64              `json:"organism_id"`
	OrganismName string             `json:"organism_name"`

	ProductName    string `json:"product_name"`
	MaxPredictions int    `json:"max_predictions"`
	Aerobic        bool   `json:"aerobic"`
	BiGG           bool   `json:"bigg"`
	Rhea           bool   `json:"rhea"`

	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

type Publisher interface {
	PublishDesignTask(ctx context.Context, payload DesignTaskPayload) error

	Close()
}

type Reciever interface {
	Tasks() <-chan Task

	Close()
}
