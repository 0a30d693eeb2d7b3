package models

import (
	"time"

	"gorm.io/gorm"
)

// Plan represents a membership plan in the catalog
type Plan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name           string   `gorm:"type:varchar(255)" json:"name"`
	Description    string   `gorm:"type:text" json:"description"`
	Price          float64  `gorm:"type:decimal(15,2)" json:"price"`
	DurationMonths int      `json:"duration_months"`
	Features       []string `gorm:"serializer:json" json:"features"`
	IsActive       bool     `gorm:"default:true" json:"is_active"`

	// Relationships
	Members []Member `gorm:"foreignKey:PlanID" json:"members,omitempty"`
}
