package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"SupportChat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return New(db, 5*time.Second)
}

func seedConversation(t *testing.T, s *Store, blocked bool) (*models.Conversation, *models.Customer) {
	t.Helper()
	company := &models.Company{Name: "Acme", Slug: "acme-" + time.Now().Format("150405.000000")}
	require.NoError(t, s.DB().Create(company).Error)
	cust := &models.Customer{CompanyID: company.ID, Name: "Jane"}
	require.NoError(t, s.DB().Create(cust).Error)
	if blocked {
		require.NoError(t, s.DB().Model(cust).Update("blocked", true).Error)
	}
	conv := &models.Conversation{CompanyID: company.ID, CustomerID: cust.ID}
	require.NoError(t, s.DB().Create(conv).Error)
	return conv, cust
}

func TestStore_AppendMessage_AssignsIDAndTimestamp(t *testing.T) {
	s := createTestStore(t)
	conv, _ := seedConversation(t, s, false)
	ctx := context.Background()

	msg, err := s.AppendMessage(ctx, NewMessage{
		ConversationID: conv.ID,
		Content:        "hi",
		SenderType:     models.SenderCustomer,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())

	stored, err := s.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", stored.Content)
	assert.Nil(t, stored.SenderID)

	reloaded, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.LastActivityAt.Equal(msg.CreatedAt), "last activity %v, message %v", reloaded.LastActivityAt, msg.CreatedAt)
}

func TestStore_AppendMessage_TimestampsStrictlyIncrease(t *testing.T) {
	s := createTestStore(t)
	conv, _ := seedConversation(t, s, false)
	ctx := context.Background()

	var prev time.Time
	var ids []string
	for i := 0; i < 20; i++ {
		msg, err := s.AppendMessage(ctx, NewMessage{ConversationID: conv.ID, Content: "m", SenderType: models.SenderCustomer})
		require.NoError(t, err)
		assert.True(t, msg.CreatedAt.After(prev), "message %d not after previous", i)
		prev = msg.CreatedAt
		ids = append(ids, msg.ID)
	}

	history, err := s.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, history, len(ids))
	for i, m := range history {
		assert.Equal(t, ids[i], m.ID)
	}
}

func TestStore_AppendMessage_GuardRejectsBlockedCustomer(t *testing.T) {
	s := createTestStore(t)
	conv, cust := seedConversation(t, s, true)
	ctx := context.Background()

	_, err := s.AppendMessage(ctx, NewMessage{
		ConversationID:  conv.ID,
		Content:         "let me in",
		SenderType:      models.SenderCustomer,
		GuardCustomerID: cust.ID,
	})
	assert.ErrorIs(t, err, ErrCustomerBlocked)

	history, err := s.ListMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStore_AppendMessage_UnknownConversation(t *testing.T) {
	s := createTestStore(t)

	_, err := s.AppendMessage(context.Background(), NewMessage{ConversationID: "missing", Content: "x", SenderType: models.SenderCustomer})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetNotFound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.GetConversation(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetCustomer(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetMessage(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestStore_LatestMessages(t *testing.T) {
	s := createTestStore(t)
	convA, _ := seedConversation(t, s, false)
	convB, _ := seedConversation(t, s, false)
	empty, _ := seedConversation(t, s, false)
	ctx := context.Background()

	var lastA *models.Message
	for _, text := range []string{"a1", "a2", "a3"} {
		m, err := s.AppendMessage(ctx, NewMessage{ConversationID: convA.ID, Content: text, SenderType: models.SenderCustomer})
		require.NoError(t, err)
		lastA = m
	}
	lastB, err := s.AppendMessage(ctx, NewMessage{ConversationID: convB.ID, Content: "b1", SenderType: models.SenderCustomer})
	require.NoError(t, err)

	latest, err := s.LatestMessages(ctx, []string{convA.ID, convB.ID, empty.ID})
	require.NoError(t, err)
	assert.Len(t, latest, 2)
	assert.Equal(t, lastA.ID, latest[convA.ID].ID)
	assert.Equal(t, lastB.ID, latest[convB.ID].ID)

	none, err := s.LatestMessages(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_DeleteCustomerHistory(t *testing.T) {
	s := createTestStore(t)
	conv, cust := seedConversation(t, s, false)
	other, _ := seedConversation(t, s, false)
	ctx := context.Background()

	second := &models.Conversation{CompanyID: conv.CompanyID, CustomerID: cust.ID}
	require.NoError(t, s.DB().Create(second).Error)
	for _, id := range []string{conv.ID, second.ID, other.ID} {
		_, err := s.AppendMessage(ctx, NewMessage{ConversationID: id, Content: "x", SenderType: models.SenderCustomer})
		require.NoError(t, err)
	}

	n, err := s.DeleteCustomerHistory(ctx, cust.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = s.GetConversation(ctx, conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	var remaining int64
	require.NoError(t, s.DB().Model(&models.Message{}).Count(&remaining).Error)
	assert.EqualValues(t, 1, remaining, "other customers keep their history")

	_, err = s.GetCustomer(ctx, cust.ID)
	assert.NoError(t, err, "the customer itself is kept")
}
