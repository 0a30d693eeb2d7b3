package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus represents the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	// PaymentStatusPaid is accepted as a legacy alias of completed when
	// summing payment history.
	PaymentStatusPaid PaymentStatus = "paid"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentType classifies a payment against the member's balance
type PaymentType string

const (
	PaymentTypeInitial          PaymentType = "initial"
	PaymentTypeRenewal          PaymentType = "renewal"
	PaymentTypeUpgrade          PaymentType = "upgrade"
	PaymentTypePartial          PaymentType = "partial"
	PaymentTypeBalanceClearance PaymentType = "balance_clearance"
)

// Payment records a single ledger entry against a member's balance
type Payment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	MemberID      uint          `gorm:"index" json:"member_id"`
	PlanID        *uint         `gorm:"index" json:"plan_id"`
	Amount        float64       `gorm:"type:decimal(15,2)" json:"amount"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(50)" json:"payment_method"`
	PaymentDate   time.Time     `json:"payment_date"`
	Description   string        `gorm:"type:text" json:"description"`
	Status        PaymentStatus `gorm:"type:varchar(20);default:'completed'" json:"status"`
	PaymentType   PaymentType   `gorm:"type:varchar(30);default:'initial'" json:"payment_type"`
	IsPartial     bool          `gorm:"default:false" json:"is_partial"`

	// RemainingBalance snapshots the member's balance right after this payment
	RemainingBalance float64 `gorm:"type:decimal(15,2);default:0" json:"remaining_balance"`

	// ReceiptRef is a unique reference printed on receipts
	ReceiptRef string `gorm:"type:varchar(64);index" json:"receipt_ref"`

	// Relationships
	Member Member `gorm:"foreignKey:MemberID" json:"member,omitempty"`
	Plan   *Plan  `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
}

// CountsTowardBalance reports whether this payment reduces the member's balance
func (p Payment) CountsTowardBalance() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusPaid
}
