package models

import (
	"time"

	"gorm.io/gorm"
)

type NotificationChannel string

const (
	NotificationChannelEmail    NotificationChannel = "email"
	NotificationChannelWhatsapp NotificationChannel = "whatsapp"
	NotificationChannelNone     NotificationChannel = "none"
)

const (
	WhatsappTargetTypePersonal = "personal"
	WhatsappTargetTypeGroup    = "group"
)

// MemberNotifPreference holds how a member wants payment reminders delivered
type MemberNotifPreference struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	MemberID uint `gorm:"uniqueIndex" json:"member_id"`

	Channel NotificationChannel `gorm:"type:varchar(20);default:'email'" json:"channel"`

	// WhatsApp specific options
	WhatsappTargetType string `gorm:"type:varchar(20);default:'personal'" json:"whatsapp_target_type"`
	WhatsappGroupID    string `gorm:"type:varchar(100)" json:"whatsapp_group_id"`
}
