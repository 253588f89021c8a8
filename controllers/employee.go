package controllers

import (
	"net/http"
	"strings"

	"SupportChat/middleware"
	"SupportChat/models"
	utils "SupportChat/pkg/utills"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func ListEmployees(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		var employees []models.Employee
		if err := db.Where("company_id = ?", p.CompanyID).Order("created_at DESC").Find(&employees).Error; err != nil {
			dbError(c, "Failed to fetch employees", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"employees": employees})
	}
}

// CreateEmployee adds an employee to the admin's company.
func CreateEmployee(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)

		var body struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		name := strings.TrimSpace(body.Name)
		email := normalizeEmail(body.Email)
		role := strings.ToUpper(strings.TrimSpace(body.Role))
		if name == "" || email == "" || !models.ValidRole(role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name, a valid email and role ADMIN or AGENT are required"})
			return
		}
		if !utils.ValidPassword(body.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
			return
		}

		var n int64
		if err := db.Model(&models.Employee{}).Where("email = ?", email).Count(&n).Error; err != nil {
			dbError(c, "Failed to create employee", err)
			return
		}
		if n > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}

		emp := models.Employee{CompanyID: p.CompanyID, Name: name, Email: email, Role: role}
		if err := emp.SetPassword(body.Password); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set password"})
			return
		}
		if err := db.Create(&emp).Error; err != nil {
			dbError(c, "Failed to create employee", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"employee": emp})
	}
}

// DeleteEmployee removes an employee of the same company. Their assigned
// conversations go back to OPEN.
func DeleteEmployee(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		id := c.Param("id")

		var emp models.Employee
		if err := db.First(&emp, "id = ?", id).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
			return
		}
		if emp.CompanyID != p.CompanyID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		if emp.ID == p.EmployeeID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
			return
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&models.Conversation{}).
				Where("employee_id = ? AND status = ?", emp.ID, models.StatusAssigned).
				Updates(map[string]any{"employee_id": nil, "status": models.StatusOpen}).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Conversation{}).
				Where("employee_id = ?", emp.ID).
				Update("employee_id", nil).Error; err != nil {
				return err
			}
			return tx.Delete(&emp).Error
		})
		if err != nil {
			dbError(c, "Failed to delete employee", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Employee deleted successfully"})
	}
}
