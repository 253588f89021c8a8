package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is an end user talking to a company through the public chat widget.
// Blocked customers cannot send messages into any of their conversations.
type Customer struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	CompanyID     string         `gorm:"size:36;not null;index" json:"companyId"`
	Name          string         `gorm:"size:120;not null" json:"name"`
	Email         *string        `gorm:"size:120;index" json:"email"`
	DeviceID      *string        `gorm:"size:120;index" json:"deviceId,omitempty"`
	Blocked       bool           `gorm:"not null;default:false" json:"blocked"`
	Conversations []Conversation `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
