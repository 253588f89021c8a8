package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"SupportChat/pkg/relay"

	"github.com/gin-gonic/gin"
)

// sendStatus maps a relay error to the HTTP status of the REST adapter.
func sendStatus(err error) int {
	switch {
	case errors.Is(err, relay.ErrInvalidMessage):
		return http.StatusBadRequest
	case errors.Is(err, relay.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, relay.ErrSenderBlocked),
		errors.Is(err, relay.ErrNotAssigned),
		errors.Is(err, relay.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, relay.ErrConversationClosed):
		return http.StatusConflict
	case errors.Is(err, relay.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondSendError(c *gin.Context, err error) {
	status := sendStatus(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error("send message failed", "component", "rest", "error", err)
		msg = "failed to send message"
	}
	c.JSON(status, gin.H{"error": msg, "code": relay.Code(err)})
}

func dbError(c *gin.Context, what string, err error) {
	slog.Error(what, "component", "rest", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": what})
}
