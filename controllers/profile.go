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

// Profile reads (GET) or updates (PUT) the signed-in employee.
func Profile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)

		var emp models.Employee
		if err := db.Where("id = ? AND company_id = ?", p.EmployeeID, p.CompanyID).First(&emp).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
			return
		}

		if c.Request.Method == http.MethodGet {
			var company models.Company
			if err := db.First(&company, "id = ?", emp.CompanyID).Error; err != nil {
				dbError(c, "failed to load company", err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"employee": emp, "company": company})
			return
		}

		// PUT
		var body struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		if name := strings.TrimSpace(body.Name); name != "" {
			emp.Name = name
		}
		if strings.TrimSpace(body.Email) != "" {
			newEmail := normalizeEmail(body.Email)
			if newEmail == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
				return
			}
			// check email uniqueness
			if newEmail != emp.Email {
				var n int64
				if err := db.Model(&models.Employee{}).Where("email = ?", newEmail).Count(&n).Error; err != nil {
					dbError(c, "db error", err)
					return
				}
				if n > 0 {
					c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
					return
				}
			}
			emp.Email = newEmail
		}
		if body.Password != "" {
			if !utils.ValidPassword(body.Password) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "New password must be at least 6 characters"})
				return
			}
			if err := emp.SetPassword(body.Password); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set password"})
				return
			}
		}
		if err := db.Save(&emp).Error; err != nil {
			dbError(c, "failed to update profile", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"employee": emp})
	}
}
