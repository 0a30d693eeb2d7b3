package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"vtfitness_api/internal/models"
)

// CreateInstallmentPlanInput carries the parameters of a new schedule
type CreateInstallmentPlanInput struct {
	MemberID          uint                        `json:"member_id"`
	PlanID            *uint                       `json:"plan_id"`
	TotalAmount       float64                     `json:"total_amount"`
	InstallmentAmount float64                     `json:"installment_amount"`
	InstallmentCount  int                         `json:"installment_count"`
	Frequency         models.InstallmentFrequency `json:"frequency"`
	StartDate         time.Time                   `json:"start_date"`
	AutoDebit         bool                        `json:"auto_debit"`
}

// InstallmentService generates and reconciles installment schedules
type InstallmentService struct {
	db *gorm.DB
}

func NewInstallmentService(db *gorm.DB) *InstallmentService {
	return &InstallmentService{db: db}
}

// CreateInstallmentPlan creates the plan row and bulk-generates one
// pending InstallmentPayment per installment, due dates advancing from
// the start date by the frequency step (7/30/90 days — fixed offsets,
// not calendar months). Whether installment_amount*count matches
// total_amount is the caller's responsibility.
func (s *InstallmentService) CreateInstallmentPlan(in CreateInstallmentPlanInput) (*models.InstallmentPlan, error) {
	if in.InstallmentCount < 1 {
		return nil, &ValidationError{Field: "installment_count", Reason: "must be at least 1"}
	}
	if in.InstallmentAmount <= 0 {
		return nil, &ValidationError{Field: "installment_amount", Reason: "must be greater than zero"}
	}
	if in.TotalAmount <= 0 {
		return nil, &ValidationError{Field: "total_amount", Reason: "must be greater than zero"}
	}
	if !in.Frequency.Valid() {
		return nil, &ValidationError{Field: "frequency", Reason: "must be weekly, monthly or quarterly"}
	}

	var member models.Member
	if err := s.db.First(&member, in.MemberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "member", ID: in.MemberID}
		}
		return nil, &PersistenceError{Op: "load member", Err: err}
	}

	plan := models.InstallmentPlan{
		MemberID:          in.MemberID,
		PlanID:            in.PlanID,
		TotalAmount:       in.TotalAmount,
		InstallmentAmount: in.InstallmentAmount,
		InstallmentCount:  in.InstallmentCount,
		Frequency:         in.Frequency,
		StartDate:         in.StartDate,
		NextDueDate:       in.StartDate,
		Status:            models.InstallmentPlanStatusActive,
		AutoDebit:         in.AutoDebit,
	}

	if err := s.db.Create(&plan).Error; err != nil {
		return nil, &PersistenceError{Op: "create installment plan", Err: err}
	}

	schedule := make([]models.InstallmentPayment, 0, in.InstallmentCount)
	due := in.StartDate
	for i := 1; i <= in.InstallmentCount; i++ {
		schedule = append(schedule, models.InstallmentPayment{
			InstallmentPlanID: plan.ID,
			InstallmentNumber: i,
			Amount:            in.InstallmentAmount,
			DueDate:           due,
			Status:            models.InstallmentStatusPending,
		})
		due = due.Add(in.Frequency.Step())
	}

	if err := s.db.Create(&schedule).Error; err != nil {
		return nil, &PersistenceError{Op: "create installment schedule", Err: err}
	}

	plan.Payments = schedule
	return &plan, nil
}

// GetPlan returns an installment plan with its schedule, ordered by
// installment number
func (s *InstallmentService) GetPlan(planID uint) (*models.InstallmentPlan, error) {
	var plan models.InstallmentPlan
	err := s.db.Preload("Payments", func(db *gorm.DB) *gorm.DB {
		return db.Order("installment_number")
	}).First(&plan, planID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "installment plan", ID: planID}
		}
		return nil, &PersistenceError{Op: "load installment plan", Err: err}
	}
	return &plan, nil
}

// ListPlans returns installment plans, optionally filtered by member
// and status
func (s *InstallmentService) ListPlans(memberID uint, status models.InstallmentPlanStatus) ([]models.InstallmentPlan, error) {
	query := s.db.Model(&models.InstallmentPlan{}).Order("created_at desc")
	if memberID > 0 {
		query = query.Where("member_id = ?", memberID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var plans []models.InstallmentPlan
	if err := query.Find(&plans).Error; err != nil {
		return nil, &PersistenceError{Op: "list installment plans", Err: err}
	}
	return plans, nil
}

// MarkPaid settles a single installment. The parent plan's progress
// counter is not touched here; callers refresh it explicitly via
// RefreshPlanProgress.
func (s *InstallmentService) MarkPaid(paymentID uint, method, transactionID, notes string) (*models.InstallmentPayment, error) {
	var payment models.InstallmentPayment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "installment payment", ID: paymentID}
		}
		return nil, &PersistenceError{Op: "load installment payment", Err: err}
	}

	now := time.Now()
	payment.Status = models.InstallmentStatusPaid
	payment.PaidDate = &now
	payment.PaymentMethod = method
	payment.TransactionID = transactionID
	payment.Notes = notes

	if err := s.db.Save(&payment).Error; err != nil {
		return nil, &PersistenceError{Op: "update installment payment", Err: err}
	}
	return &payment, nil
}

// RefreshPlanProgress recounts paid installments and rolls the parent
// plan's counter, next due date and completion status forward
func (s *InstallmentService) RefreshPlanProgress(planID uint) (*models.InstallmentPlan, error) {
	plan, err := s.GetPlan(planID)
	if err != nil {
		return nil, err
	}

	paid := 0
	var nextDue *time.Time
	for i := range plan.Payments {
		p := plan.Payments[i]
		switch p.Status {
		case models.InstallmentStatusPaid:
			paid++
		case models.InstallmentStatusPending, models.InstallmentStatusOverdue:
			if nextDue == nil || p.DueDate.Before(*nextDue) {
				nextDue = &plan.Payments[i].DueDate
			}
		}
	}

	updates := map[string]interface{}{"paid_installments": paid}
	if nextDue != nil {
		updates["next_due_date"] = *nextDue
	}
	if paid >= plan.InstallmentCount && plan.Status == models.InstallmentPlanStatusActive {
		updates["status"] = models.InstallmentPlanStatusCompleted
	}

	if err := s.db.Model(&models.InstallmentPlan{}).Where("id = ?", planID).Updates(updates).Error; err != nil {
		return nil, &PersistenceError{Op: "update installment plan progress", Err: err}
	}

	return s.GetPlan(planID)
}

// SweepOverdue transitions every pending installment due before asOf to
// overdue and returns how many rows changed. Idempotent: a second sweep
// with the same date finds nothing left to transition.
func (s *InstallmentService) SweepOverdue(asOf time.Time) (int64, error) {
	result := s.db.Model(&models.InstallmentPayment{}).
		Where("status = ? AND due_date < ?", models.InstallmentStatusPending, asOf).
		Update("status", models.InstallmentStatusOverdue)
	if result.Error != nil {
		return 0, &PersistenceError{Op: "sweep overdue installments", Err: result.Error}
	}
	return result.RowsAffected, nil
}

// ListPayments returns installment payments, optionally filtered by plan
// and status, in schedule order
func (s *InstallmentService) ListPayments(planID uint, status models.InstallmentStatus) ([]models.InstallmentPayment, error) {
	query := s.db.Preload("InstallmentPlan").Order("installment_plan_id, installment_number")
	if planID > 0 {
		query = query.Where("installment_plan_id = ?", planID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var payments []models.InstallmentPayment
	if err := query.Find(&payments).Error; err != nil {
		return nil, &PersistenceError{Op: "list installment payments", Err: err}
	}
	return payments, nil
}

// ListDue returns pending installments due within the next windowDays
func (s *InstallmentService) ListDue(windowDays int) ([]models.InstallmentPayment, error) {
	today := startOfDay(time.Now())
	until := today.AddDate(0, 0, windowDays)

	var payments []models.InstallmentPayment
	err := s.db.Preload("InstallmentPlan").
		Where("status = ? AND due_date >= ? AND due_date <= ?", models.InstallmentStatusPending, today, until).
		Order("due_date").
		Find(&payments).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list due installments", Err: err}
	}
	return payments, nil
}

// ListOverdue returns installments past due as of today: already-swept
// overdue rows plus pending rows the sweep has not reached yet
func (s *InstallmentService) ListOverdue() ([]models.InstallmentPayment, error) {
	today := startOfDay(time.Now())

	var payments []models.InstallmentPayment
	err := s.db.Preload("InstallmentPlan").
		Where("due_date < ? AND status IN ?", today,
			[]models.InstallmentStatus{models.InstallmentStatusPending, models.InstallmentStatusOverdue}).
		Order("due_date").
		Find(&payments).Error
	if err != nil {
		return nil, &PersistenceError{Op: "list overdue installments", Err: err}
	}
	return payments, nil
}

// CancelPlan soft-cancels an installment plan and cascades to its
// unpaid schedule rows; paid installments are left untouched
func (s *InstallmentService) CancelPlan(planID uint) error {
	var plan models.InstallmentPlan
	if err := s.db.First(&plan, planID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "installment plan", ID: planID}
		}
		return &PersistenceError{Op: "load installment plan", Err: err}
	}

	if err := s.db.Model(&plan).Update("status", models.InstallmentPlanStatusCancelled).Error; err != nil {
		return &PersistenceError{Op: "cancel installment plan", Err: err}
	}

	err := s.db.Model(&models.InstallmentPayment{}).
		Where("installment_plan_id = ? AND status IN ?", planID,
			[]models.InstallmentStatus{models.InstallmentStatusPending, models.InstallmentStatusOverdue}).
		Update("status", models.InstallmentStatusCancelled).Error
	if err != nil {
		return &PersistenceError{Op: "cancel installment schedule", Err: err}
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
