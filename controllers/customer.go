package controllers

import (
	"net/http"

	"SupportChat/middleware"
	"SupportChat/models"
	"SupportChat/pkg/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func ListCustomers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		var customers []models.Customer
		if err := db.Where("company_id = ?", p.CompanyID).Order("created_at DESC").Find(&customers).Error; err != nil {
			dbError(c, "Failed to fetch customers", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"customers": customers})
	}
}

// SetCustomerBlocked blocks or unblocks a customer (admin only). The relay
// reads the flag on every customer send, so it applies to the next message.
func SetCustomerBlocked(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)

		var body struct {
			Blocked *bool `json:"blocked"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || body.Blocked == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "blocked must be true or false"})
			return
		}

		cust, ok := loadTenantCustomer(c, db, p.CompanyID, c.Param("id"))
		if !ok {
			return
		}
		if err := db.Model(cust).Update("blocked", *body.Blocked).Error; err != nil {
			dbError(c, "Failed to update customer", err)
			return
		}
		cust.Blocked = *body.Blocked
		c.JSON(http.StatusOK, gin.H{"customer": cust})
	}
}

// DeleteCustomerHistory removes all conversations and messages of a customer.
func DeleteCustomerHistory(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		cust, ok := loadTenantCustomer(c, s.DB(), p.CompanyID, c.Param("id"))
		if !ok {
			return
		}
		n, err := s.DeleteCustomerHistory(c.Request.Context(), cust.ID)
		if err != nil {
			dbError(c, "Failed to delete chat history", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Chat history deleted successfully", "deletedConversations": n})
	}
}

func loadTenantCustomer(c *gin.Context, db *gorm.DB, companyID, id string) (*models.Customer, bool) {
	var cust models.Customer
	if err := db.First(&cust, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return nil, false
	}
	if cust.CompanyID != companyID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return nil, false
	}
	return &cust, true
}
