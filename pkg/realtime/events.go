package realtime

import (
	"encoding/json"

	"SupportChat/models"
)

// Event types on the socket. Inbound: join/leave/new-message. Outbound: the rest.
const (
	EventJoinConversation  = "join-conversation"
	EventLeaveConversation = "leave-conversation"
	EventNewMessage        = "new-message"

	EventMessageReceived = "message-received"
	EventJoined          = "joined"
	EventLeft            = "left"
	EventError           = "error"
)

// Inbound is a frame sent by a socket client.
type Inbound struct {
	Type            string `json:"type"`
	ConversationID  string `json:"conversationId"`
	Content         string `json:"content"`
	ImageURL        string `json:"imageUrl"`
	ClientMessageID string `json:"clientMessageId"`
}

// Outbound is a frame written to a socket client.
type Outbound struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversationId,omitempty"`
	Message        *models.Message `json:"message,omitempty"`
	Code           string          `json:"code,omitempty"`
	Error          string          `json:"error,omitempty"`
}

// MessageFrame encodes the broadcast frame for a persisted message. Every
// field of Outbound and models.Message is a string, pointer to string or
// time.Time, so encoding cannot fail.
func MessageFrame(msg *models.Message) []byte {
	b, _ := json.Marshal(Outbound{Type: EventMessageReceived, ConversationID: msg.ConversationID, Message: msg})
	return b
}

// ErrorFrame encodes an error event addressed to a single sender.
func ErrorFrame(code, text string) []byte {
	b, _ := json.Marshal(Outbound{Type: EventError, Code: code, Error: text})
	return b
}

// AckFrame confirms a join or leave.
func AckFrame(eventType, conversationID string) []byte {
	b, _ := json.Marshal(Outbound{Type: eventType, ConversationID: conversationID})
	return b
}
