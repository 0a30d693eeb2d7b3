package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtfitness_api/internal/models"
)

func newTestInstallmentPlan(t *testing.T, svc *InstallmentService, memberID uint, count int, freq models.InstallmentFrequency, start time.Time) *models.InstallmentPlan {
	t.Helper()

	plan, err := svc.CreateInstallmentPlan(CreateInstallmentPlanInput{
		MemberID:          memberID,
		TotalAmount:       float64(count) * 100,
		InstallmentAmount: 100,
		InstallmentCount:  count,
		Frequency:         freq,
		StartDate:         start,
	})
	require.NoError(t, err)
	return plan
}

func TestCreateInstallmentPlan_MonthlySchedule(t *testing.T) {
	db := newTestDB(t)
	svc := NewInstallmentService(db)
	member := createTestMember(t, db, "monthly@example.com", nil)

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := newTestInstallmentPlan(t, svc, member.ID, 3, models.FrequencyMonthly, start)

	require.Len(t, plan.Payments, 3)

	// Monthly is a fixed 30-day offset, so the third slot lands in March
	wantDates := []time.Time{
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	for i, p := range plan.Payments {
		assert.Equal(t, i+1, p.InstallmentNumber)
		assert.Equal(t, 100.0, p.Amount)
		assert.Equal(t, models.InstallmentStatusPending, p.Status)
		assert.True(t, p.DueDate.Equal(wantDates[i]), "installment %d: got %s want %s", i+1, p.DueDate, wantDates[i])
	}

	assert.Equal(t, models.InstallmentPlanStatusActive, plan.Status)
	assert.True(t, plan.NextDueDate.Equal(start))
}

func TestCreateInstallmentPlan_WeeklyAndQuarterlyOffsets(t *testing.T) {
	db := newTestDB(t)
	svc := NewInstallmentService(db)
	member := createTestMember(t, db, "offsets@example.com", nil)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	weekly := newTestInstallmentPlan(t, svc, member.ID, 2, models.FrequencyWeekly, start)
	assert.True(t, weekly.Payments[1].DueDate.Equal(start.AddDate(0, 0, 7)))

	quarterly := newTestInstallmentPlan(t, svc, member.ID, 2, models.FrequencyQuarterly, start)
	assert.True(t, quarterly.Payments[1].DueDate.Equal(start.AddDate(0, 0, 90)))
}

func TestCreateInstallmentPlan_Validation(t *testing.T) {
	db := newTestDB(t)
	svc := NewInstallmentService(db)
	member := createTestMember(t, db, "invalid@example.com", nil)

	tests := []struct {
		name  string
		input CreateInstallmentPlanInput
	}{
		{
			name: "zero installment count",
			input: CreateInstallmentPlanInput{
				MemberID: member.ID, TotalAmount: 100, InstallmentAmount: 100,
				InstallmentCount: 0, Frequency: models.FrequencyMonthly,
			},
		},
		{
			name: "zero installment amount",
			input: CreateInstallmentPlanInput{
				MemberID: member.ID, TotalAmount: 100, InstallmentAmount: 0,
				InstallmentCount: 1, Frequency: models.FrequencyMonthly,
			},
		},
		{
			name: "unknown frequency",
			input: CreateInstallmentPlanInput{
				MemberID: member.ID, TotalAmount: 100, InstallmentAmount: 100,
				InstallmentCount: 1, Frequency: "daily",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.StartDate = time.Now()
			_, err := svc.CreateInstallmentPlan(tt.input)
			var validation *ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestCreateInstallmentPlan_UnknownMember(t *testing.T) {
	db := newTestDB(t)
	svc := NewInstallmentService(db)

	_, err := svc.CreateInstallmentPlan(CreateInstallmentPlanInput{
		MemberID: 9999, TotalAmount: 100, InstallmentAmount: 100,
		InstallmentCount: 1, Frequency: models.FrequencyMonthly, StartDate: time.Now(),
	})

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestMarkPaid_RefreshesPlanProgress(t *testing.T) {
	db := newTestDB(t)
	svc := NewInstallmentService(db)
	member := createTestMember(t, db, "progress@example.com", nil)

	plan := newTestInstallmentPlan(t, svc, member.ID, 2, models.FrequencyMonthly, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	paid, err := svc.MarkPaid(plan.Payments[0].ID, "cash", "tx-1", "")
	require.NoError(t, err)
	assert.Equal(t, models.InstallmentStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidDate)

	refreshed, err := svc.RefreshPlanProgress(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed.PaidInstallments)
	assert.Equal(t, models.InstallmentPlanStatusActive, refreshed.Status)
	assert.True(t, refreshed.NextDueDate.Equal(plan.Payments[1].DueDate))

	_, err = svc.MarkPaid(plan.Payments[1].ID, "cash", "tx-2", "")
	require.NoError(t, err)

	completed, err := svc.RefreshPlanProgress(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, completed.PaidInstallments)
	assert.Equal(t, models.InstallmentPlanStatusCompleted, completed.Status)
}

func TestSweepOverdue_Idempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewInstallmentService(db)
	member := createTestMember(t, db, "sweep@example.com", nil)

	// 3 monthly installments starting 40 days ago: two slots are past due
	start := time.Now().AddDate(0, 0, -40)
	newTestInstallmentPlan(t, svc, member.ID, 3, models.FrequencyMonthly, start)

	affected, err := svc.SweepOverdue(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	// Second sweep with the same clock finds nothing left to transition
	affected, err = svc.SweepOverdue(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	var overdueCount int64
	require.NoError(t, db.Model(&models.InstallmentPayment{}).
		Where("status = ?", models.InstallmentStatusOverdue).Count(&overdueCount).Error)
	assert.Equal(t, int64(2), overdueCount)
}

func TestSweepOverdue_DoesNotTouchPaid(t *testing.T) {
	db := newTestDB(t)
	svc := NewInstallmentService(db)
	member := createTestMember(t, db, "sweeppaid@example.com", nil)

	start := time.Now().AddDate(0, 0, -10)
	plan := newTestInstallmentPlan(t, svc, member.ID, 1, models.FrequencyMonthly, start)

	_, err := svc.MarkPaid(plan.Payments[0].ID, "cash", "tx-1", "")
	require.NoError(t, err)

	affected, err := svc.SweepOverdue(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestListDueAndOverdue(t *testing.T) {
	db := newTestDB(t)
	svc := NewInstallmentService(db)
	member := createTestMember(t, db, "windows@example.com", nil)

	today := startOfDay(time.Now())

	// One slot 5 days out, one 20 days out, one 3 days past due
	newTestInstallmentPlan(t, svc, member.ID, 1, models.FrequencyMonthly, today.AddDate(0, 0, 5))
	newTestInstallmentPlan(t, svc, member.ID, 1, models.FrequencyMonthly, today.AddDate(0, 0, 20))
	newTestInstallmentPlan(t, svc, member.ID, 1, models.FrequencyMonthly, today.AddDate(0, 0, -3))

	due, err := svc.ListDue(7)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.True(t, due[0].DueDate.Equal(today.AddDate(0, 0, 5)))

	wide, err := svc.ListDue(30)
	require.NoError(t, err)
	assert.Len(t, wide, 2)

	// Overdue listing covers both swept and not-yet-swept rows
	overdue, err := svc.ListOverdue()
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.True(t, overdue[0].DueDate.Equal(today.AddDate(0, 0, -3)))

	_, err = svc.SweepOverdue(time.Now())
	require.NoError(t, err)

	overdue, err = svc.ListOverdue()
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, models.InstallmentStatusOverdue, overdue[0].Status)
}

func TestCancelPlan_CascadesToUnpaidOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewInstallmentService(db)
	member := createTestMember(t, db, "cancel@example.com", nil)

	start := time.Now().AddDate(0, 0, -40)
	plan := newTestInstallmentPlan(t, svc, member.ID, 3, models.FrequencyMonthly, start)

	_, err := svc.MarkPaid(plan.Payments[0].ID, "cash", "tx-1", "")
	require.NoError(t, err)

	// Leave one overdue and one pending behind the paid slot
	_, err = svc.SweepOverdue(time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.CancelPlan(plan.ID))

	reloaded, err := svc.GetPlan(plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InstallmentPlanStatusCancelled, reloaded.Status)

	statuses := map[models.InstallmentStatus]int{}
	for _, p := range reloaded.Payments {
		statuses[p.Status]++
	}
	assert.Equal(t, 1, statuses[models.InstallmentStatusPaid])
	assert.Equal(t, 2, statuses[models.InstallmentStatusCancelled])
}

func TestCancelPlan_Unknown(t *testing.T) {
	db := newTestDB(t)
	svc := NewInstallmentService(db)

	err := svc.CancelPlan(9999)

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
