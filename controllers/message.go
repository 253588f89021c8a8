package controllers

import (
	"net/http"
	"strings"

	"SupportChat/middleware"
	"SupportChat/pkg/relay"

	"github.com/gin-gonic/gin"
)

// SendMessage is the employee send path. The persisted message comes back as
// the response; other participants get it through the socket broadcast.
func SendMessage(rl *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.CurrentPrincipal(c)
		if p == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var body struct {
			ConversationID  string `json:"conversationId"`
			Content         string `json:"content"`
			ImageURL        string `json:"imageUrl"`
			ClientMessageID string `json:"clientMessageId"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.ConversationID) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "code": "InvalidMessage"})
			return
		}

		key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		if key == "" {
			key = strings.TrimSpace(body.ClientMessageID)
		}

		res, err := rl.Send(c.Request.Context(), relay.SendRequest{
			ConversationID: body.ConversationID,
			Content:        body.Content,
			AttachmentRef:  body.ImageURL,
			Sender:         relay.Employee(p.EmployeeID, p.CompanyID, p.IsAdmin()),
			IdempotencyKey: key,
		})
		if err != nil {
			respondSendError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": res.Message})
	}
}
