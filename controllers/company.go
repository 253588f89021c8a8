package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"SupportChat/middleware"
	"SupportChat/models"
	utils "SupportChat/pkg/utills"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

// RegisterCompany creates a tenant together with its first admin.
func RegisterCompany(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			CompanyName   string `json:"companyName"`
			AdminName     string `json:"adminName"`
			AdminEmail    string `json:"adminEmail"`
			AdminPassword string `json:"adminPassword"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		companyName := strings.TrimSpace(body.CompanyName)
		adminName := strings.TrimSpace(body.AdminName)
		email := normalizeEmail(body.AdminEmail)
		if companyName == "" || adminName == "" || email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "companyName, adminName and a valid adminEmail are required"})
			return
		}
		if !utils.ValidPassword(body.AdminPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
			return
		}

		var company models.Company
		err := db.Transaction(func(tx *gorm.DB) error {
			var exists int64
			if err := tx.Model(&models.Employee{}).Where("email = ?", email).Count(&exists).Error; err != nil {
				return err
			}
			if exists > 0 {
				return errEmailTaken
			}

			slug, err := uniqueSlug(tx, companyName)
			if err != nil {
				return err
			}
			company = models.Company{Name: companyName, Slug: slug}
			if err := tx.Create(&company).Error; err != nil {
				return err
			}

			admin := models.Employee{CompanyID: company.ID, Name: adminName, Email: email, Role: models.RoleAdmin}
			if err := admin.SetPassword(body.AdminPassword); err != nil {
				return err
			}
			return tx.Create(&admin).Error
		})
		if errors.Is(err, errEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		if err != nil {
			dbError(c, "Registration failed", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "company": company})
	}
}

var errEmailTaken = errors.New("email already registered")

// uniqueSlug returns base, base-1, base-2, ... whichever is free first.
func uniqueSlug(tx *gorm.DB, name string) (string, error) {
	base := utils.GenerateSlug(name)
	slug := base
	for i := 1; ; i++ {
		var n int64
		if err := tx.Model(&models.Company{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
			return "", err
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// Login exchanges employee credentials for an access token.
func Login(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		email := normalizeEmail(body.Email)
		if email == "" || body.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
			return
		}

		var emp models.Employee
		if err := db.Where("email = ?", email).First(&emp).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		if !emp.CheckPassword(body.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		tokenStr, err := middleware.SignToken(secret, middleware.Principal{
			EmployeeID: emp.ID,
			CompanyID:  emp.CompanyID,
			Role:       emp.Role,
			Email:      emp.Email,
		}, tokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"accessToken": tokenStr, "employee": emp})
	}
}

// normalizeEmail lowercases and validates an address; "" when invalid.
func normalizeEmail(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return ""
	}
	return s
}
