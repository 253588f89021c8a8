package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"SupportChat/middleware"
	"SupportChat/models"
	"SupportChat/pkg/events"
	"SupportChat/pkg/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListConversations returns the tenant's conversations, most recently active
// first, each with its latest message as the only entry of "messages".
// Filters: ?status=OPEN|ASSIGNED|CLOSED and ?assigned=true|false.
func ListConversations(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)

		q := s.DB().WithContext(c.Request.Context()).
			Preload("Customer").Preload("Employee").
			Where("company_id = ?", p.CompanyID)
		if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
			q = q.Where("status = ?", status)
		}
		switch c.Query("assigned") {
		case "true":
			q = q.Where("employee_id IS NOT NULL")
		case "false":
			q = q.Where("employee_id IS NULL")
		}

		var convs []models.Conversation
		if err := q.Order("last_activity_at DESC").Find(&convs).Error; err != nil {
			dbError(c, "Failed to fetch conversations", err)
			return
		}

		ids := make([]string, len(convs))
		for i := range convs {
			ids[i] = convs[i].ID
		}
		latest, err := s.LatestMessages(c.Request.Context(), ids)
		if err != nil {
			dbError(c, "Failed to fetch conversations", err)
			return
		}
		for i := range convs {
			convs[i].Messages = []models.Message{}
			if m, ok := latest[convs[i].ID]; ok {
				convs[i].Messages = append(convs[i].Messages, m)
			}
		}

		c.JSON(http.StatusOK, gin.H{"conversations": convs})
	}
}

// GetConversation returns one conversation with its full history in order.
func GetConversation(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		conv, ok := loadTenantConversation(c, s.DB(), p.CompanyID, c.Param("id"))
		if !ok {
			return
		}
		msgs, err := s.ListMessages(c.Request.Context(), conv.ID)
		if err != nil {
			dbError(c, "Failed to fetch conversation", err)
			return
		}
		conv.Messages = msgs
		c.JSON(http.StatusOK, gin.H{"conversation": conv})
	}
}

// AssignConversation sets (userId) or clears (userId: null) the assignee.
func AssignConversation(db *gorm.DB, pub events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)

		var body struct {
			UserID *string `json:"userId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		conv, ok := loadTenantConversation(c, db, p.CompanyID, c.Param("id"))
		if !ok {
			return
		}

		if body.UserID != nil && *body.UserID != "" {
			var n int64
			if err := db.Model(&models.Employee{}).Where("id = ? AND company_id = ?", *body.UserID, p.CompanyID).Count(&n).Error; err != nil {
				dbError(c, "Failed to update conversation", err)
				return
			}
			if n == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user"})
				return
			}
		}

		if err := conv.Assign(body.UserID); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "ConversationClosed"})
			return
		}
		// guarded on status so a concurrent close wins
		res := db.Model(&models.Conversation{}).
			Where("id = ? AND status <> ?", conv.ID, models.StatusClosed).
			Updates(map[string]any{"employee_id": conv.EmployeeID, "status": conv.Status, "updated_at": time.Now().UTC()})
		if res.Error != nil {
			dbError(c, "Failed to update conversation", res.Error)
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": models.ErrConversationClosed.Error(), "code": "ConversationClosed"})
			return
		}

		publish(c.Request.Context(), pub, events.KeyConversationAssigned, events.NewEnvelope(events.TypeConversationAssigned, events.ConversationAssignedV1{
			CompanyID:      conv.CompanyID,
			ConversationID: conv.ID,
			EmployeeID:     conv.EmployeeID,
			AssignedAt:     time.Now().UTC(),
		}))

		var updated models.Conversation
		if err := db.Preload("Customer").Preload("Employee").First(&updated, "id = ?", conv.ID).Error; err != nil {
			dbError(c, "Failed to update conversation", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"conversation": updated})
	}
}

// CloseConversation moves the conversation to CLOSED. Closing twice is fine.
func CloseConversation(db *gorm.DB, pub events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		conv, ok := loadTenantConversation(c, db, p.CompanyID, c.Param("id"))
		if !ok {
			return
		}
		if conv.Status == models.StatusClosed {
			c.JSON(http.StatusOK, gin.H{"conversation": conv})
			return
		}

		now := time.Now().UTC()
		conv.Close(now)
		if err := db.Model(&models.Conversation{}).Where("id = ?", conv.ID).
			Updates(map[string]any{"status": conv.Status, "closed_at": conv.ClosedAt, "updated_at": now}).Error; err != nil {
			dbError(c, "Failed to close conversation", err)
			return
		}

		publish(c.Request.Context(), pub, events.KeyConversationClosed, events.NewEnvelope(events.TypeConversationClosed, events.ConversationClosedV1{
			CompanyID:      conv.CompanyID,
			ConversationID: conv.ID,
			ClosedAt:       now,
		}))
		c.JSON(http.StatusOK, gin.H{"conversation": conv})
	}
}

// loadTenantConversation writes 404 when the conversation is missing or owned
// by another company.
func loadTenantConversation(c *gin.Context, db *gorm.DB, companyID, id string) (*models.Conversation, bool) {
	var conv models.Conversation
	err := db.WithContext(c.Request.Context()).Preload("Customer").Preload("Employee").First(&conv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && conv.CompanyID != companyID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
		return nil, false
	}
	if err != nil {
		dbError(c, "Failed to fetch conversation", err)
		return nil, false
	}
	return &conv, true
}

func publish(ctx context.Context, pub events.Publisher, key string, env events.Envelope) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := pub.Publish(ctx, key, env); err != nil {
		slog.Warn("publish event", "component", "rest", "key", key, "error", err)
	}
}
