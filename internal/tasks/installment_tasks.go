package tasks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"vtfitness_api/internal/models"
	"vtfitness_api/internal/services"
)

// SweepOverdueTaskDef moves lapsed pending installments to overdue.
// Scheduled as a recurring daily task; safe to rerun since the sweep
// is idempotent.
type SweepOverdueTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SweepOverdueTaskDef) TaskID() string {
	return "sweep_overdue_installments"
}

// HandleExecution runs the sweep as of now
func (t *SweepOverdueTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	installments := services.NewInstallmentService(db)

	swept, err := installments.SweepOverdue(time.Now())
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status":       "success",
		"swept_count":  swept,
		"swept_before": time.Now().Format(time.RFC3339),
	}, nil
}

// SweepOverdueTask is the singleton instance of SweepOverdueTaskDef
var SweepOverdueTask = &SweepOverdueTaskDef{}
