package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusOpen     = "OPEN"
	StatusAssigned = "ASSIGNED"
	StatusClosed   = "CLOSED"
)

var ErrConversationClosed = errors.New("conversation is closed")

// Conversation moves OPEN -> ASSIGNED -> OPEN and ends in CLOSED.
// LastActivityAt is bumped on every appended message.
type Conversation struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	CompanyID      string     `gorm:"size:36;not null;index" json:"companyId"`
	CustomerID     string     `gorm:"size:36;not null;index" json:"customerId"`
	Customer       *Customer  `json:"customer,omitempty"`
	Status         string     `gorm:"size:16;not null;default:OPEN;index" json:"status"`
	EmployeeID     *string    `gorm:"size:36;index" json:"userId"`
	Employee       *Employee  `json:"user,omitempty"`
	Messages       []Message  `gorm:"constraint:OnDelete:CASCADE" json:"messages"`
	LastActivityAt time.Time  `gorm:"index" json:"lastActivityAt"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = StatusOpen
	}
	if c.LastActivityAt.IsZero() {
		c.LastActivityAt = time.Now().UTC()
	}
	return nil
}

// Assign sets or clears the assigned employee. A nil or empty id unassigns.
func (c *Conversation) Assign(employeeID *string) error {
	if c.Status == StatusClosed {
		return ErrConversationClosed
	}
	if employeeID == nil || *employeeID == "" {
		c.EmployeeID = nil
		c.Status = StatusOpen
		return nil
	}
	id := *employeeID
	c.EmployeeID = &id
	c.Status = StatusAssigned
	return nil
}

// Close is terminal and idempotent.
func (c *Conversation) Close(at time.Time) {
	if c.Status == StatusClosed {
		return
	}
	c.Status = StatusClosed
	c.ClosedAt = &at
}

// IsActive reports whether the conversation counts as active (OPEN or ASSIGNED).
func (c *Conversation) IsActive() bool {
	return c.Status == StatusOpen || c.Status == StatusAssigned
}

// AssignedTo reports whether employeeID is the assigned employee.
func (c *Conversation) AssignedTo(employeeID string) bool {
	return c.EmployeeID != nil && *c.EmployeeID == employeeID
}
