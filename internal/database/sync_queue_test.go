package database

import (
	"context"
	"testing"
	"time"

	"otelshin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncTaskLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{
		TaskType:  "session_upsert",
		TargetKey: "session_1_abc",
		Payload:   `{"session":{"session_id":"session_1_abc"}}`,
		Status:    "pending",
	}

	require.NoError(t, db.CreateSyncTask(ctx, task))
	assert.NotZero(t, task.ID)

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "session_upsert", tasks[0].TaskType)
	assert.Equal(t, "session_1_abc", tasks[0].TargetKey)

	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "completed", "", nil))

	tasks, err = db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSyncTaskRetryScheduling(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{TaskType: "client_upsert", TargetKey: "42", Payload: "{}", Status: "pending"}
	require.NoError(t, db.CreateSyncTask(ctx, task))

	// задача с next_retry_at в будущем не должна попадать в выборку
	future := time.Now().Add(time.Hour)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "retry", "quota exceeded", &future))

	tasks, err := db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	// а с прошедшим должна
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "retry", "quota exceeded", &past))

	tasks, err = db.GetPendingSyncTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 2, tasks[0].RetryCount)
	assert.Equal(t, "quota exceeded", tasks[0].LastError)
}

func TestGetFailedSyncTasks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	task := &models.SyncTask{TaskType: "session_upsert", TargetKey: "session_2_def", Payload: "{}", Status: "pending"}
	require.NoError(t, db.CreateSyncTask(ctx, task))
	require.NoError(t, db.UpdateSyncTaskStatus(ctx, task.ID, "failed", "bad payload", nil))

	failed, err := db.GetFailedSyncTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "bad payload", failed[0].LastError)
}
