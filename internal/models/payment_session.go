package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

type PaymentGateway string

const (
	PaymentGatewayMidtrans PaymentGateway = "midtrans"
	PaymentGatewayManual   PaymentGateway = "manual"
)

// PaymentSession tracks an online checkout started for an installment
// payment. At most one active session exists per installment at a time.
type PaymentSession struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	InstallmentPlanID    uint            `json:"installment_plan_id"`
	InstallmentPaymentID uint            `gorm:"index" json:"installment_payment_id"`
	MemberID             uint            `json:"member_id"`
	PaymentGateway       PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	OrderID              string          `gorm:"type:varchar(100);index" json:"order_id"`
	IsActive             bool            `gorm:"default:true" json:"is_active"`
	RequestMetadata      json.RawMessage `gorm:"type:jsonb" json:"request_metadata"`
	ResponseMetadata     json.RawMessage `gorm:"type:jsonb" json:"response_metadata"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
