package controllers

import (
	"errors"
	"net/http"
	"strings"

	"SupportChat/models"
	"SupportChat/pkg/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Public chat widget endpoints. The company is addressed by slug and the
// customer by an opaque device id kept in the browser.

func loadCompanyBySlug(c *gin.Context, db *gorm.DB) (*models.Company, bool) {
	var company models.Company
	err := db.WithContext(c.Request.Context()).First(&company, "slug = ?", c.Param("slug")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return nil, false
	}
	if err != nil {
		dbError(c, "Failed to load company", err)
		return nil, false
	}
	return &company, true
}

// WidgetCompany returns the company and, for a known ?deviceId=, the
// customer with their previous conversations.
func WidgetCompany(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		db := s.DB()
		company, ok := loadCompanyBySlug(c, db)
		if !ok {
			return
		}
		resp := gin.H{"company": company}

		deviceID := strings.TrimSpace(c.Query("deviceId"))
		if deviceID == "" {
			c.JSON(http.StatusOK, resp)
			return
		}

		var cust models.Customer
		err := db.Where("company_id = ? AND device_id = ?", company.ID, deviceID).First(&cust).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, resp)
			return
		}
		if err != nil {
			dbError(c, "Failed to load customer", err)
			return
		}

		var convs []models.Conversation
		if err := db.Preload("Employee").
			Where("company_id = ? AND customer_id = ?", company.ID, cust.ID).
			Order("last_activity_at DESC").Find(&convs).Error; err != nil {
			dbError(c, "Failed to load conversations", err)
			return
		}
		ids := make([]string, len(convs))
		for i := range convs {
			ids[i] = convs[i].ID
		}
		latest, err := s.LatestMessages(c.Request.Context(), ids)
		if err != nil {
			dbError(c, "Failed to load conversations", err)
			return
		}
		for i := range convs {
			convs[i].Messages = []models.Message{}
			if m, ok := latest[convs[i].ID]; ok {
				convs[i].Messages = append(convs[i].Messages, m)
			}
		}

		resp["customer"] = cust
		resp["conversations"] = convs
		c.JSON(http.StatusOK, resp)
	}
}

// WidgetStartConversation finds the customer by device id, then by email,
// creating them if neither matches, and opens a new conversation.
func WidgetStartConversation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		company, ok := loadCompanyBySlug(c, db)
		if !ok {
			return
		}

		var body struct {
			CustomerName  string `json:"customerName"`
			CustomerEmail string `json:"customerEmail"`
			DeviceID      string `json:"deviceId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}
		name := strings.TrimSpace(body.CustomerName)
		deviceID := strings.TrimSpace(body.DeviceID)
		var email string
		if strings.TrimSpace(body.CustomerEmail) != "" {
			if email = normalizeEmail(body.CustomerEmail); email == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
				return
			}
		}
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		var conv models.Conversation
		err := db.Transaction(func(tx *gorm.DB) error {
			cust, err := findOrCreateCustomer(tx, company.ID, name, email, deviceID)
			if err != nil {
				return err
			}
			conv = models.Conversation{CompanyID: company.ID, CustomerID: cust.ID, Status: models.StatusOpen}
			if err := tx.Create(&conv).Error; err != nil {
				return err
			}
			conv.Customer = cust
			return nil
		})
		if err != nil {
			dbError(c, "Failed to create conversation", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"conversation": conv})
	}
}

func findOrCreateCustomer(tx *gorm.DB, companyID, name, email, deviceID string) (*models.Customer, error) {
	var cust models.Customer
	found := false
	if deviceID != "" {
		err := tx.Where("company_id = ? AND device_id = ?", companyID, deviceID).First(&cust).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		found = err == nil
	}
	if !found && email != "" {
		err := tx.Where("company_id = ? AND email = ?", companyID, email).First(&cust).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		found = err == nil
	}

	if !found {
		cust = models.Customer{CompanyID: companyID, Name: name}
		if email != "" {
			cust.Email = &email
		}
		if deviceID != "" {
			cust.DeviceID = &deviceID
		}
		if err := tx.Create(&cust).Error; err != nil {
			return nil, err
		}
		return &cust, nil
	}

	updates := map[string]any{}
	if name != cust.Name {
		updates["name"] = name
		cust.Name = name
	}
	if email != "" && (cust.Email == nil || *cust.Email != email) {
		updates["email"] = email
		cust.Email = &email
	}
	if deviceID != "" && cust.DeviceID == nil {
		updates["device_id"] = deviceID
		cust.DeviceID = &deviceID
	}
	if len(updates) > 0 {
		if err := tx.Model(&models.Customer{}).Where("id = ?", cust.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &cust, nil
}

// WidgetConversation returns a conversation's history to the widget. A
// ?deviceId= that does not match the conversation's customer is refused.
func WidgetConversation(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		db := s.DB()
		company, ok := loadCompanyBySlug(c, db)
		if !ok {
			return
		}

		var conv models.Conversation
		err := db.Preload("Customer").Preload("Employee").First(&conv, "id = ?", c.Param("conversationId")).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && conv.CompanyID != company.ID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		if err != nil {
			dbError(c, "Failed to fetch conversation", err)
			return
		}

		if deviceID := strings.TrimSpace(c.Query("deviceId")); deviceID != "" {
			if conv.Customer == nil || conv.Customer.DeviceID == nil || *conv.Customer.DeviceID != deviceID {
				c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
				return
			}
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
