package migration_1

import (
	"fmt"

	"gorm.io/gorm"
)

type DesignJob struct {
	Aerobic bool `gorm:"not null;default:true"`
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&DesignJob{}, "aerobic"); err != nil {
		return fmt.Errorf("error adding Aerobic column: %w", err)
	}

	if err := db.Model(&DesignJob{}).
		Where("aerobic IS NULL").
		Update("aerobic", true).Error; err != nil {
		return fmt.Errorf("error setting default value for Aerobic: %w", err)
	}

	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropColumn(&DesignJob{}, "Aerobic"); err != nil {
		return fmt.Errorf("error dropping Aerobic column: %w", err)
	}

	return nil
}
