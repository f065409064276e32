package migration_0

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DesignJob as of the first release. Later columns are added by the
// migrations that introduced them.
type DesignJob struct {
	Id             int       `gorm:"primaryKey"`
	ProjectId      *int64    `gorm:"index"`
	OrganismId     int64     `gorm:"not null"`
	ModelId        int64     `gorm:"not null"`
	ProductName    string    `gorm:"not null"`
	MaxPredictions int       `gorm:"not null"`
	TaskId         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`

	Status string         `gorm:"size:8;not null"`
	Result datatypes.JSON `gorm:"type:jsonb"`

	Created time.Time `gorm:"not null"`
	Updated sql.NullTime
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().CreateTable(&DesignJob{}); err != nil {
		return fmt.Errorf("error creating design_jobs table: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&DesignJob{}); err != nil {
		return fmt.Errorf("error dropping design_jobs table: %w", err)
	}
	return nil
}
