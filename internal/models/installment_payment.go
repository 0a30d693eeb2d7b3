package models

import (
	"time"

	"gorm.io/gorm"
)

// InstallmentStatus represents the state of a single scheduled installment
type InstallmentStatus string

const (
	InstallmentStatusPending   InstallmentStatus = "pending"
	InstallmentStatusPaid      InstallmentStatus = "paid"
	InstallmentStatusOverdue   InstallmentStatus = "overdue"
	InstallmentStatusCancelled InstallmentStatus = "cancelled"
)

// InstallmentPayment is one scheduled slot of an installment plan.
// Rows are generated in bulk at plan creation, one per installment,
// and mutated individually when paid or discovered overdue.
type InstallmentPayment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InstallmentPlanID uint `gorm:"index;uniqueIndex:idx_plan_installment_no,priority:1" json:"installment_plan_id"`
	// InstallmentNumber is 1-based and unique within its plan
	InstallmentNumber int               `gorm:"uniqueIndex:idx_plan_installment_no,priority:2" json:"installment_number"`
	Amount            float64           `gorm:"type:decimal(15,2)" json:"amount"`
	DueDate           time.Time         `gorm:"index" json:"due_date"`
	Status            InstallmentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	PaidDate          *time.Time        `json:"paid_date"`
	PaymentMethod     string            `gorm:"type:varchar(50)" json:"payment_method"`
	TransactionID     string            `gorm:"type:varchar(100)" json:"transaction_id"`
	Notes             string            `gorm:"type:text" json:"notes"`

	// Relationships
	InstallmentPlan InstallmentPlan `gorm:"foreignKey:InstallmentPlanID" json:"installment_plan,omitempty"`
}
