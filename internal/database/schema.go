package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Job statuses. PENDING and STARTED are in-progress; the rest are terminal.
const (
	JobPending string = "PENDING"
	JobStarted string = "STARTED"
	JobSuccess string = "SUCCESS"
	JobFailure string = "FAILURE"
	JobRevoked string = "REVOKED"
)

// Terminal reports whether a job status will never change again.
func Terminal(status string) bool {
	return status == JobSuccess || status == JobFailure || status == JobRevoked
}

type DesignJob struct {
	Id int `gorm:"primaryKey"`

	// Null means the job is public.
	ProjectId *int64 `gorm:"index"`

	OrganismId     int64  `gorm:"not null"`
	ModelId        int64  `gorm:"not null"`
	ProductName    string `gorm:"not null"`
	MaxPredictions int    `gorm:"not null"`
	Aerobic        bool   `gorm:"not null;default:true"`

	// Correlation id carried by the queued message.
	TaskId uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`

	Status string         `gorm:"size:8;not null"`
	Result datatypes.JSON `gorm:"type:jsonb"`

	Created time.Time `gorm:"not null"`
	Updated sql.NullTime
}
