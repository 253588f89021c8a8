package controllers

import (
	"net/http"
	"time"

	"SupportChat/middleware"
	"SupportChat/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Analytics struct {
	TotalCustomers      int64 `json:"totalCustomers"`
	BlockedCustomers    int64 `json:"blockedCustomers"`
	RecentCustomers     int64 `json:"recentCustomers"` // joined in the last 7 days
	TotalConversations  int64 `json:"totalConversations"`
	ActiveConversations int64 `json:"activeConversations"`
	ClosedConversations int64 `json:"closedConversations"`
	TotalMessages       int64 `json:"totalMessages"`
}

func GetAnalytics(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		a, err := companyAnalytics(db.WithContext(c.Request.Context()), p.CompanyID, time.Now())
		if err != nil {
			dbError(c, "Failed to fetch analytics", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"analytics": a})
	}
}

func companyAnalytics(db *gorm.DB, companyID string, now time.Time) (*Analytics, error) {
	a := &Analytics{}
	customers := func() *gorm.DB { return db.Model(&models.Customer{}).Where("company_id = ?", companyID) }
	conversations := func() *gorm.DB { return db.Model(&models.Conversation{}).Where("company_id = ?", companyID) }

	counts := []struct {
		q   *gorm.DB
		dst *int64
	}{
		{customers(), &a.TotalCustomers},
		{customers().Where("blocked = ?", true), &a.BlockedCustomers},
		{customers().Where("created_at >= ?", now.Add(-7*24*time.Hour)), &a.RecentCustomers},
		{conversations(), &a.TotalConversations},
		{conversations().Where("status IN ?", []string{models.StatusOpen, models.StatusAssigned}), &a.ActiveConversations},
		{conversations().Where("status = ?", models.StatusClosed), &a.ClosedConversations},
		{db.Model(&models.Message{}).Where("conversation_id IN (?)",
			db.Model(&models.Conversation{}).Select("id").Where("company_id = ?", companyID)), &a.TotalMessages},
	}
	for _, q := range counts {
		if err := q.q.Count(q.dst).Error; err != nil {
			return nil, err
		}
	}
	return a, nil
}
