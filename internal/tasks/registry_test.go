package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vtfitness_api/internal/models"
	"vtfitness_api/internal/services"
)

func newTaskTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, services.AutoMigrate(db))
	return db
}

func TestDefineTasks_RegistersAllHandlers(t *testing.T) {
	DefineTasks()

	for _, name := range []string{
		LogInfoTask.TaskID(),
		SweepOverdueTask.TaskID(),
		SendPaymentRemindersTask.TaskID(),
	} {
		_, found := GetHandler(name)
		assert.True(t, found, "handler %s not registered", name)
	}

	_, found := GetHandler("no_such_task")
	assert.False(t, found)
}

func TestBuildScheduledTask(t *testing.T) {
	due := time.Now().Add(time.Hour)

	task, err := BuildScheduledTask("sweep_overdue_installments", map[string]interface{}{"days": 7}, due, nil, models.ScheduledTaskTypeOneTime, 3)
	require.NoError(t, err)

	assert.Equal(t, "sweep_overdue_installments", task.TaskName)
	assert.Equal(t, models.ScheduledTaskStatusActive, task.Status)
	assert.Equal(t, models.ScheduledTaskTypeOneTime, task.TaskType)
	assert.Equal(t, 3, task.MaxAttempt)
	assert.EqualValues(t, 7, task.Arguments["days"])
}

func TestSweepOverdueTask_Execution(t *testing.T) {
	db := newTaskTestDB(t)

	member := models.Member{
		FullName: "Sweep Target",
		Email:    "sweeptask@example.com",
		Status:   models.MembershipStatusActive,
	}
	require.NoError(t, db.Create(&member).Error)

	installments := services.NewInstallmentService(db)
	_, err := installments.CreateInstallmentPlan(services.CreateInstallmentPlanInput{
		MemberID:          member.ID,
		TotalAmount:       200,
		InstallmentAmount: 100,
		InstallmentCount:  2,
		Frequency:         models.FrequencyWeekly,
		StartDate:         time.Now().AddDate(0, 0, -10),
	})
	require.NoError(t, err)

	task := models.ScheduledTask{TaskName: SweepOverdueTask.TaskID()}
	result, err := SweepOverdueTask.HandleExecution(context.Background(), db, task)
	require.NoError(t, err)

	assert.Equal(t, "success", result["status"])
	assert.EqualValues(t, 2, result["swept_count"])
}
