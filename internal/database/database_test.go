package database

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func createDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, GetMigrator(db).Migrate())

	return db
}

func newJob(projectId *int64) DesignJob {
	return DesignJob{
		ProjectId:      projectId,
		OrganismId:     4,
		ModelId:        17,
		ProductName:    "vanillin",
		MaxPredictions: 3,
		Aerobic:        true,
		TaskId:         uuid.New(),
		Status:         JobPending,
		Created:        time.Now().UTC(),
	}
}

func TestMigratedSchema(t *testing.T) {
	db := createDB(t)

	migrator := db.Migrator()
	assert.True(t, migrator.HasTable(&DesignJob{}))
	assert.True(t, migrator.HasColumn(&DesignJob{}, "aerobic"))
	assert.True(t, migrator.HasColumn(&DesignJob{}, "task_id"))
}

func TestJobLifecycle(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	job := newJob(nil)
	require.NoError(t, db.Create(&job).Error)
	require.NotZero(t, job.Id)

	require.NoError(t, UpdateJobStatus(ctx, db, job.Id, JobStarted))

	stored, err := GetJob(ctx, db, job.Id)
	require.NoError(t, err)
	assert.Equal(t, JobStarted, stored.Status)
	assert.True(t, stored.Updated.Valid)

	report := map[string]any{"target": "MNXM754", "diff_fva": []any{}}
	require.NoError(t, SaveJobResult(ctx, db, job.Id, report))

	stored, err = GetJob(ctx, db, job.Id)
	require.NoError(t, err)
	assert.Equal(t, JobSuccess, stored.Status)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(stored.Result, &decoded))
	assert.Equal(t, "MNXM754", decoded["target"])
}

func TestSaveJobFailure(t *testing.T) {
	db := createDB(t)
	ctx := context.Background()

	job := newJob(nil)
	require.NoError(t, db.Create(&job).Error)

	require.NoError(t, SaveJobFailure(ctx, db, job.Id, "find_product", "no such product: unobtainium"))

	stored, err := GetJob(ctx, db, job.Id)
	require.NoError(t, err)
	assert.Equal(t, JobFailure, stored.Status)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(stored.Result, &decoded))
	assert.Equal(t, "find_product", decoded["step"])
}

func TestTerminal(t *testing.T) {
	assert.False(t, Terminal(JobPending))
	assert.False(t, Terminal(JobStarted))
	assert.True(t, Terminal(JobSuccess))
	assert.True(t, Terminal(JobFailure))
	assert.True(t, Terminal(JobRevoked))
}
