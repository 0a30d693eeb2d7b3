package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PaymentCallbackHistory stores every raw gateway notification for auditing
type PaymentCallbackHistory struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PaymentGateway PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	OrderID        string          `gorm:"type:varchar(100);index" json:"order_id"`
	Metadata       json.RawMessage `gorm:"type:jsonb" json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
