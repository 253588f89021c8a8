// Package store is the message store: the durable, append-only message log per
// conversation plus the conversation and customer state the relay reads.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SupportChat/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound        = errors.New("store: record not found")
	ErrCustomerBlocked = errors.New("store: customer is blocked")
)

// Open connects to the database for driver ("sqlite" or "mysql") and migrates the schema.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// sqlite allows a single writer; one connection avoids "database is locked"
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Company{},
		&models.Employee{},
		&models.Customer{},
		&models.Conversation{},
		&models.Message{},
	); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// NewMessage is the input of AppendMessage. The store assigns ID and CreatedAt.
type NewMessage struct {
	ConversationID string
	Content        string
	ImageURL       *string
	SenderType     string
	SenderID       *string

	// GuardCustomerID, when set, re-reads that customer's blocked flag inside
	// the write transaction and aborts with ErrCustomerBlocked.
	GuardCustomerID string
}

// Store implements the relay's persistence contract on top of gorm.
type Store struct {
	db      *gorm.DB
	timeout time.Duration
}

// New wraps db. Every call is bounded by timeout (0 means no extra bound).
func New(db *gorm.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var conv models.Conversation
	if err := s.db.WithContext(ctx).First(&conv, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &conv, nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var cust models.Customer
	if err := s.db.WithContext(ctx).First(&cust, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &cust, nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var msg models.Message
	if err := s.db.WithContext(ctx).First(&msg, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

// ListMessages returns a conversation's history in persisted order.
func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	msgs := make([]models.Message, 0)
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// AppendMessage inserts the message and bumps the conversation's last activity
// in one transaction. CreatedAt is strictly increasing per conversation, so
// ordering by created_at gives the append order.
func (s *Store) AppendMessage(ctx context.Context, in NewMessage) (*models.Message, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out *models.Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := s.lockForUpdate(tx).First(&conv, "id = ?", in.ConversationID).Error; err != nil {
			return err
		}

		if in.GuardCustomerID != "" {
			var cust models.Customer
			if err := s.lockForUpdate(tx).Select("id", "blocked").First(&cust, "id = ?", in.GuardCustomerID).Error; err != nil {
				return err
			}
			if cust.Blocked {
				return ErrCustomerBlocked
			}
		}

		createdAt := time.Now().UTC().Truncate(time.Millisecond)
		if last := conv.LastActivityAt.UTC(); !createdAt.After(last) {
			createdAt = last.Truncate(time.Millisecond).Add(time.Millisecond)
		}

		msg := &models.Message{
			ConversationID: in.ConversationID,
			Content:        in.Content,
			ImageURL:       in.ImageURL,
			SenderType:     in.SenderType,
			SenderID:       in.SenderID,
			CreatedAt:      createdAt,
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		if err := touchConversation(tx, conv.ID, createdAt); err != nil {
			return err
		}
		out = msg
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

// LatestMessages returns the newest message of each conversation in ids,
// keyed by conversation id. Conversations without messages are absent.
func (s *Store) LatestMessages(ctx context.Context, ids []string) (map[string]models.Message, error) {
	out := make(map[string]models.Message, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	// created_at is unique within a conversation, so the max picks one row
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id IN ?", ids).
		Where("created_at = (SELECT MAX(m2.created_at) FROM messages m2 WHERE m2.conversation_id = messages.conversation_id)").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		out[m.ConversationID] = m
	}
	return out, nil
}

// DeleteCustomerHistory removes every conversation of the customer together
// with their messages and returns how many conversations were deleted.
func (s *Store) DeleteCustomerHistory(ctx context.Context, customerID string) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		convIDs := tx.Model(&models.Conversation{}).Select("id").Where("customer_id = ?", customerID)
		if err := tx.Where("conversation_id IN (?)", convIDs).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		res := tx.Where("customer_id = ?", customerID).Delete(&models.Conversation{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// touchConversation bumps the last-activity timestamp.
func touchConversation(tx *gorm.DB, id string, at time.Time) error {
	return tx.Model(&models.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_activity_at": at, "updated_at": at}).Error
}

// lockForUpdate adds SELECT ... FOR UPDATE where the dialect has row locks.
// sqlite serializes writers on its own.
func (s *Store) lockForUpdate(tx *gorm.DB) *gorm.DB {
	if s.db.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
