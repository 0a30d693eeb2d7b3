package models

import (
	"time"

	"gorm.io/gorm"
)

// MembershipStatus represents the lifecycle state of a membership
type MembershipStatus string

const (
	MembershipStatusActive   MembershipStatus = "active"
	MembershipStatusInactive MembershipStatus = "inactive"
	MembershipStatusExpired  MembershipStatus = "expired"
)

// Member represents a gym member
type Member struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// UserID links to the external identity account (Firebase UID).
	// Nil when account provisioning failed or was skipped.
	UserID *string `gorm:"type:varchar(128);index" json:"user_id"`

	FullName          string     `gorm:"type:varchar(255)" json:"full_name"`
	Email             string     `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone             string     `gorm:"type:varchar(50)" json:"phone"`
	DateOfBirth       *time.Time `json:"date_of_birth"`
	Gender            string     `gorm:"type:varchar(20)" json:"gender"`
	Address           string     `gorm:"type:text" json:"address"`
	EmergencyContact  string     `gorm:"type:varchar(255)" json:"emergency_contact"`
	EmergencyPhone    string     `gorm:"type:varchar(50)" json:"emergency_phone"`
	BloodGroup        string     `gorm:"type:varchar(10)" json:"blood_group"`
	MedicalConditions string     `gorm:"type:text" json:"medical_conditions"`

	PlanID    *uint            `gorm:"index" json:"plan_id"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	Status    MembershipStatus `gorm:"type:varchar(20);default:'inactive'" json:"status"`

	// QRCode is the opaque payload encoded on the member's check-in card
	QRCode string `gorm:"type:varchar(100);index" json:"qr_code"`

	// Denormalized balance snapshot. BalanceDue == max(0, TotalAmountDue-AmountPaid).
	// Maintained by RecomputeBalance; rebuildable from payment history at any time.
	TotalAmountDue float64 `gorm:"type:decimal(15,2);default:0" json:"total_amount_due"`
	AmountPaid     float64 `gorm:"type:decimal(15,2);default:0" json:"amount_paid"`
	BalanceDue     float64 `gorm:"type:decimal(15,2);default:0" json:"balance_due"`

	// Relationships
	Plan     *Plan     `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Payments []Payment `gorm:"foreignKey:MemberID" json:"payments,omitempty"`
}
