package models

import (
	"time"

	"gorm.io/gorm"
)

// InstallmentFrequency is the spacing between scheduled installments
type InstallmentFrequency string

const (
	FrequencyWeekly    InstallmentFrequency = "weekly"
	FrequencyMonthly   InstallmentFrequency = "monthly"
	FrequencyQuarterly InstallmentFrequency = "quarterly"
)

// Step returns the fixed day offset between consecutive due dates.
// Monthly is a fixed 30-day offset, not calendar-accurate.
func (f InstallmentFrequency) Step() time.Duration {
	switch f {
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyQuarterly:
		return 90 * 24 * time.Hour
	default:
		return 30 * 24 * time.Hour
	}
}

// Valid reports whether f is a known frequency
func (f InstallmentFrequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly:
		return true
	}
	return false
}

// InstallmentPlanStatus represents the lifecycle state of an installment plan
type InstallmentPlanStatus string

const (
	InstallmentPlanStatusActive    InstallmentPlanStatus = "active"
	InstallmentPlanStatusCompleted InstallmentPlanStatus = "completed"
	InstallmentPlanStatusCancelled InstallmentPlanStatus = "cancelled"
	InstallmentPlanStatusOverdue   InstallmentPlanStatus = "overdue"
)

// InstallmentPlan splits a total amount into a fixed periodic schedule
type InstallmentPlan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	MemberID          uint                  `gorm:"index" json:"member_id"`
	PlanID            *uint                 `gorm:"index" json:"plan_id"`
	TotalAmount       float64               `gorm:"type:decimal(15,2)" json:"total_amount"`
	InstallmentAmount float64               `gorm:"type:decimal(15,2)" json:"installment_amount"`
	InstallmentCount  int                   `json:"installment_count"`
	Frequency         InstallmentFrequency  `gorm:"type:varchar(20)" json:"frequency"`
	StartDate         time.Time             `json:"start_date"`
	NextDueDate       time.Time             `json:"next_due_date"`
	PaidInstallments  int                   `gorm:"default:0" json:"paid_installments"`
	Status            InstallmentPlanStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	AutoDebit         bool                  `gorm:"default:false" json:"auto_debit"`

	// Relationships
	Member   Member               `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Plan     *Plan                `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Payments []InstallmentPayment `gorm:"foreignKey:InstallmentPlanID" json:"payments,omitempty"`
}
