// Package events publishes domain events (message created, conversation
// assigned or closed) to a RabbitMQ topic exchange for downstream consumers.
package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	producer = "supportchat"

	TypeMessageCreated       = "supportchat.message.created.v1"
	TypeConversationAssigned = "supportchat.conversation.assigned.v1"
	TypeConversationClosed   = "supportchat.conversation.closed.v1"

	KeyMessageCreated       = "message.created"
	KeyConversationAssigned = "conversation.assigned"
	KeyConversationClosed   = "conversation.closed"
)

type Meta struct {
	// Trace / request correlation ID
	CorrelationID *string `json:"correlation_id,omitempty"`
	// Unique event ID
	ID       string    `json:"id"`
	Producer string    `json:"producer"`
	Time     time.Time `json:"time"`
	// Event name and version
	Type string `json:"type"`
}

type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

// NewEnvelope stamps a fresh event id and time.
func NewEnvelope(eventType string, data any) Envelope {
	return Envelope{
		Meta: Meta{
			ID:       uuid.NewString(),
			Producer: producer,
			Time:     time.Now().UTC(),
			Type:     eventType,
		},
		Data: data,
	}
}

// WithCorrelation sets the correlation id when non-empty.
func (e Envelope) WithCorrelation(id string) Envelope {
	if id != "" {
		e.Meta.CorrelationID = &id
	}
	return e
}

type MessageCreatedV1 struct {
	CompanyID      string    `json:"company_id"`
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	SenderType     string    `json:"sender_type"`
	SenderID       *string   `json:"sender_id,omitempty"`
	HasImage       bool      `json:"has_image"`
	Reached        int       `json:"reached"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationAssignedV1 struct {
	CompanyID      string    `json:"company_id"`
	ConversationID string    `json:"conversation_id"`
	EmployeeID     *string   `json:"employee_id"` // nil when unassigned
	AssignedAt     time.Time `json:"assigned_at"`
}

type ConversationClosedV1 struct {
	CompanyID      string    `json:"company_id"`
	ConversationID string    `json:"conversation_id"`
	ClosedAt       time.Time `json:"closed_at"`
}
