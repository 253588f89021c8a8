package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SenderCustomer = "CUSTOMER"
	SenderEmployee = "EMPLOYEE"
)

// Message is immutable once stored. Its JSON form is the wire payload shared by
// the REST reply and the socket broadcast.
type Message struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string    `gorm:"size:36;not null;index:idx_messages_conversation_created,priority:1" json:"conversationId"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	ImageURL       *string   `gorm:"size:500" json:"imageUrl"`
	SenderType     string    `gorm:"size:16;not null" json:"senderType"`
	SenderID       *string   `gorm:"size:36" json:"senderId"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created,priority:2" json:"createdAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
