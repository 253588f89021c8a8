// Package relay is the single path through which a chat message becomes
// durable and visible: it validates a send, persists it, then broadcasts the
// stored record to the conversation's room.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"SupportChat/models"
	"SupportChat/pkg/events"
	"SupportChat/pkg/idempotency"
	"SupportChat/pkg/realtime"
	"SupportChat/pkg/store"
)

const publishTimeout = 5 * time.Second

// Store is the persistence the relay needs.
type Store interface {
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	GetCustomer(ctx context.Context, id string) (*models.Customer, error)
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	AppendMessage(ctx context.Context, in store.NewMessage) (*models.Message, error)
}

// Broadcaster fans a payload out to a conversation's room and reports how
// many endpoints accepted it.
type Broadcaster interface {
	Broadcast(conversationID string, payload []byte) int
}

// SendRequest is one message send. AttachmentRef is the image URL.
type SendRequest struct {
	ConversationID string
	Content        string
	AttachmentRef  string
	Sender         Sender
	IdempotencyKey string
}

// Relay validates, persists and broadcasts messages. Create one per process
// with New and hand it to every transport.
type Relay struct {
	store        Store
	rooms        Broadcaster
	publisher    events.Publisher
	idem         idempotency.Store
	rejectClosed bool
	locks        *keyedMutex
	logger       *slog.Logger
}

type Option func(*Relay)

func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithPublisher emits a message-created event after every new message.
func WithPublisher(p events.Publisher) Option {
	return func(r *Relay) { r.publisher = p }
}

// WithIdempotency enables replay of sends carrying an idempotency key.
func WithIdempotency(s idempotency.Store) Option {
	return func(r *Relay) { r.idem = s }
}

// WithRejectClosed makes sends into CLOSED conversations fail with
// ErrConversationClosed instead of being appended.
func WithRejectClosed(reject bool) Option {
	return func(r *Relay) { r.rejectClosed = reject }
}

func New(s Store, rooms Broadcaster, opts ...Option) *Relay {
	r := &Relay{
		store:  s,
		rooms:  rooms,
		locks:  newKeyedMutex(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "relay")
	return r
}

// SendResult is the outcome of a successful Send. Replayed is set when the
// idempotency key matched an earlier send; the message was then neither
// persisted nor broadcast again and Reached is zero.
type SendResult struct {
	*models.Message
	Reached  int
	Replayed bool
}

// Send validates req, persists the message and broadcasts it to the
// conversation's room. On error nothing was persisted or broadcast. A
// repeated IdempotencyKey returns the message the first send produced.
func (r *Relay) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	// blank checks only; content is stored exactly as sent
	if strings.TrimSpace(req.Content) == "" && strings.TrimSpace(req.AttachmentRef) == "" {
		return nil, ErrInvalidMessage
	}
	if !req.Sender.IsCustomer() && !req.Sender.IsEmployee() {
		return nil, fmt.Errorf("%w: unknown sender", ErrInvalidMessage)
	}

	// Persist and broadcast for one conversation happen under its lock, so
	// every subscriber sees messages in the order they were stored.
	unlock := r.locks.Lock(req.ConversationID)
	res, companyID, err := r.sendLocked(ctx, req)
	unlock()
	if err != nil {
		r.logger.Debug("send rejected",
			"conversation_id", req.ConversationID,
			"sender_type", req.Sender.senderType(),
			"code", Code(err))
		return nil, err
	}
	if res.Replayed {
		r.logger.Debug("idempotent replay", "conversation_id", req.ConversationID, "message_id", res.ID)
		return res, nil
	}

	r.logger.Info("message relayed",
		"conversation_id", res.ConversationID,
		"message_id", res.ID,
		"sender_type", res.SenderType,
		"reached", res.Reached)
	r.publishCreated(ctx, res.Message, companyID, res.Reached)
	return res, nil
}

func (r *Relay) sendLocked(ctx context.Context, req SendRequest) (*SendResult, string, error) {
	conv, err := r.store.GetConversation(ctx, req.ConversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrConversationNotFound
		}
		return nil, "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	in := store.NewMessage{
		ConversationID: conv.ID,
		Content:        req.Content,
		SenderType:     req.Sender.senderType(),
		SenderID:       req.Sender.senderID(),
	}
	if strings.TrimSpace(req.AttachmentRef) != "" {
		attachment := req.AttachmentRef
		in.ImageURL = &attachment
	}

	switch {
	case req.Sender.IsEmployee():
		if err := authorizeEmployee(conv, req.Sender); err != nil {
			return nil, "", err
		}
	case req.Sender.IsCustomer():
		// Read fresh on every send, before a replay can succeed and right
		// before the write. The store re-checks the flag in its transaction.
		cust, err := r.store.GetCustomer(ctx, conv.CustomerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, "", ErrConversationNotFound
			}
			return nil, "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if cust.Blocked {
			return nil, "", ErrSenderBlocked
		}
		in.GuardCustomerID = cust.ID
	}

	if prior := r.replay(ctx, req); prior != nil {
		return &SendResult{Message: prior, Replayed: true}, conv.CompanyID, nil
	}

	if r.rejectClosed && conv.Status == models.StatusClosed {
		return nil, "", ErrConversationClosed
	}

	msg, err := r.store.AppendMessage(ctx, in)
	switch {
	case errors.Is(err, store.ErrCustomerBlocked):
		return nil, "", ErrSenderBlocked
	case errors.Is(err, store.ErrNotFound):
		return nil, "", ErrConversationNotFound
	case err != nil:
		return nil, "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	reached := r.rooms.Broadcast(msg.ConversationID, realtime.MessageFrame(msg))
	r.remember(ctx, req, msg.ID)
	return &SendResult{Message: msg, Reached: reached}, conv.CompanyID, nil
}

// authorizeEmployee checks tenant scope and assignment.
func authorizeEmployee(conv *models.Conversation, s Sender) error {
	if conv.CompanyID != s.companyID {
		return ErrForbidden
	}
	if conv.EmployeeID != nil && !conv.AssignedTo(s.employeeID) && !s.isAdmin {
		return ErrNotAssigned
	}
	return nil
}

// replay returns the message an earlier send with the same key produced.
// Lookup failures fall through to a normal send.
func (r *Relay) replay(ctx context.Context, req SendRequest) *models.Message {
	if r.idem == nil || req.IdempotencyKey == "" {
		return nil
	}
	id, found, err := r.idem.Lookup(ctx, req.ConversationID, req.IdempotencyKey)
	if err != nil {
		r.logger.Warn("idempotency lookup failed", "conversation_id", req.ConversationID, "error", err)
		return nil
	}
	if !found {
		return nil
	}
	msg, err := r.store.GetMessage(ctx, id)
	if err != nil {
		// history deleted or store hiccup; treat as a fresh send
		r.logger.Warn("idempotent message unavailable", "message_id", id, "error", err)
		return nil
	}
	return msg
}

func (r *Relay) remember(ctx context.Context, req SendRequest, messageID string) {
	if r.idem == nil || req.IdempotencyKey == "" {
		return
	}
	if err := r.idem.Remember(ctx, req.ConversationID, req.IdempotencyKey, messageID); err != nil {
		r.logger.Warn("idempotency remember failed", "conversation_id", req.ConversationID, "error", err)
	}
}

func (r *Relay) publishCreated(ctx context.Context, msg *models.Message, companyID string, reached int) {
	if r.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	env := events.NewEnvelope(events.TypeMessageCreated, events.MessageCreatedV1{
		CompanyID:      companyID,
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		SenderType:     msg.SenderType,
		SenderID:       msg.SenderID,
		HasImage:       msg.ImageURL != nil,
		Reached:        reached,
		CreatedAt:      msg.CreatedAt,
	}).WithCorrelation(msg.ID)
	if err := r.publisher.Publish(ctx, events.KeyMessageCreated, env); err != nil {
		r.logger.Warn("publish message event", "message_id", msg.ID, "error", err)
	}
}
