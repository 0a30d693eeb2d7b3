package services

import (
	"errors"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vtfitness_api/internal/models"
)

// RecordPaymentInput carries the caller-supplied fields of a payment
type RecordPaymentInput struct {
	MemberID      uint                 `json:"member_id"`
	Amount        float64              `json:"amount"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	PaymentDate   time.Time            `json:"payment_date"`
	PlanID        *uint                `json:"plan_id"`
	Description   string               `json:"description"`
	// TypeOverride forces the classification (e.g. renewal, upgrade);
	// when empty the recorder classifies partial vs initial itself
	TypeOverride models.PaymentType `json:"payment_type"`
	// Status defaults to completed
	Status models.PaymentStatus `json:"status"`
}

// PaymentRecord is a payment enriched with display names for the caller
type PaymentRecord struct {
	models.Payment
	MemberName string `json:"member_name"`
	PlanName   string `json:"plan_name,omitempty"`
}

// PaymentService records payments against member balances
type PaymentService struct {
	db       *gorm.DB
	balances *BalanceService
	notifier Notifier
}

func NewPaymentService(db *gorm.DB, balances *BalanceService, notifier Notifier) *PaymentService {
	return &PaymentService{db: db, balances: balances, notifier: notifier}
}

// RecordPayment creates a payment row, refreshes the member's balance
// snapshot and classifies the payment against the outstanding balance.
// The receipt notification is best-effort and never fails the payment.
func (s *PaymentService) RecordPayment(in RecordPaymentInput) (*PaymentRecord, error) {
	if in.Amount <= 0 {
		return nil, &ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}

	var member models.Member
	if err := s.db.Preload("Plan").First(&member, in.MemberID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "member", ID: in.MemberID}
		}
		return nil, &PersistenceError{Op: "load member", Err: err}
	}

	var history []models.Payment
	if err := s.db.Where("member_id = ?", member.ID).Find(&history).Error; err != nil {
		return nil, &PersistenceError{Op: "load payments", Err: err}
	}

	planPrice := 0.0
	if member.Plan != nil {
		planPrice = member.Plan.Price
	}
	current := ComputeBalance(planPrice, member.TotalAmountDue, history)

	newBalance := current.BalanceDue - in.Amount
	isPartial := newBalance > 0

	paymentType := in.TypeOverride
	if paymentType == "" {
		if isPartial {
			paymentType = models.PaymentTypePartial
		} else {
			paymentType = models.PaymentTypeInitial
		}
	}

	status := in.Status
	if status == "" {
		status = models.PaymentStatusCompleted
	}
	date := in.PaymentDate
	if date.IsZero() {
		date = time.Now()
	}

	payment := models.Payment{
		MemberID:         member.ID,
		PlanID:           in.PlanID,
		Amount:           in.Amount,
		PaymentMethod:    in.PaymentMethod,
		PaymentDate:      date,
		Description:      in.Description,
		Status:           status,
		PaymentType:      paymentType,
		IsPartial:        isPartial,
		RemainingBalance: math.Max(0, newBalance),
		ReceiptRef:       uuid.New().String(),
	}

	if err := s.db.Create(&payment).Error; err != nil {
		return nil, &PersistenceError{Op: "create payment", Err: err}
	}

	if _, err := s.balances.RecomputeBalance(member.ID); err != nil {
		return nil, err
	}

	planName := s.resolvePlanName(in.PlanID, member.Plan)

	if s.notifier != nil {
		err := s.notifier.SendReceipt(member.Email, member.FullName, ReceiptDetails{
			ReceiptRef:       payment.ReceiptRef,
			Amount:           payment.Amount,
			PaymentMethod:    string(payment.PaymentMethod),
			PaymentDate:      payment.PaymentDate.Format("2006-01-02"),
			PlanName:         planName,
			RemainingBalance: payment.RemainingBalance,
		})
		if err != nil {
			log.Printf("Receipt notification failed for member %d: %v", member.ID, err)
		}
	}

	return &PaymentRecord{
		Payment:    payment,
		MemberName: member.FullName,
		PlanName:   planName,
	}, nil
}

// DeletePayment removes a payment (administrative correction) and
// recomputes the owning member's balance so the snapshot stays
// consistent with the remaining history.
func (s *PaymentService) DeletePayment(paymentID uint) error {
	var payment models.Payment
	if err := s.db.First(&payment, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "payment", ID: paymentID}
		}
		return &PersistenceError{Op: "load payment", Err: err}
	}

	if err := s.db.Delete(&payment).Error; err != nil {
		return &PersistenceError{Op: "delete payment", Err: err}
	}

	if _, err := s.balances.RecomputeBalance(payment.MemberID); err != nil {
		return err
	}
	return nil
}

func (s *PaymentService) resolvePlanName(planID *uint, memberPlan *models.Plan) string {
	if planID != nil {
		var plan models.Plan
		if err := s.db.First(&plan, *planID).Error; err == nil {
			return plan.Name
		}
		return ""
	}
	if memberPlan != nil {
		return memberPlan.Name
	}
	return ""
}
