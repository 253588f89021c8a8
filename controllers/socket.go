package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"SupportChat/middleware"
	"SupportChat/models"
	"SupportChat/pkg/realtime"
	"SupportChat/pkg/relay"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

// SocketHandler is the persistent-connection adapter. Customers connect
// without a token and may send; employees connect with ?token= and only
// receive, since their sends go through POST /api/messages.
//
// Client protocol (JSON frames):
//
//	-> {type: "join-conversation", conversationId}
//	-> {type: "leave-conversation", conversationId}
//	-> {type: "new-message", conversationId, content?, imageUrl?, clientMessageId?}
//	<- {type: "joined"|"left", conversationId}
//	<- {type: "message-received", conversationId, message}
//	<- {type: "error", code, error}
type SocketHandler struct {
	Relay      *relay.Relay
	Registry   *realtime.Registry
	DB         *gorm.DB
	Secret     string
	SendBuffer int
	Logger     *slog.Logger
}

func (h *SocketHandler) logger() *slog.Logger {
	l := h.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", "socket")
}

func (h *SocketHandler) Handle(c *gin.Context) {
	var principal *middleware.Principal
	if tokenStr := strings.TrimSpace(c.Query("token")); tokenStr != "" {
		p, err := middleware.ParseToken(h.Secret, tokenStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		principal = p
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger().Warn("upgrade failed", "error", err)
		return
	}

	conn := realtime.NewConnection(ws, h.SendBuffer)
	log := h.logger().With("connection_id", conn.ID(), "employee", principal != nil)
	conn.Start()
	log.Debug("connected")

	defer func() {
		h.Registry.Remove(conn)
		conn.Close(websocket.CloseNormalClosure, "")
		log.Debug("disconnected")
	}()

	ctx := c.Request.Context()
	for {
		data, err := conn.Read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read failed", "error", err)
			}
			return
		}
		h.dispatch(ctx, conn, principal, data, log)
	}
}

// dispatch handles one inbound frame. Replies go to conn only.
func (h *SocketHandler) dispatch(ctx context.Context, conn *realtime.Connection, principal *middleware.Principal, data []byte, log *slog.Logger) {
	var in realtime.Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		_ = conn.Send(realtime.ErrorFrame("InvalidFrame", "frame is not valid JSON"))
		return
	}
	in.ConversationID = strings.TrimSpace(in.ConversationID)
	if in.ConversationID == "" {
		_ = conn.Send(realtime.ErrorFrame("InvalidFrame", "conversationId is required"))
		return
	}

	switch in.Type {
	case realtime.EventJoinConversation:
		if principal != nil {
			if err := h.checkTenant(ctx, principal, in.ConversationID); err != nil {
				_ = conn.Send(realtime.ErrorFrame(relay.Code(err), socketErrorText(err)))
				return
			}
		}
		h.Registry.Subscribe(in.ConversationID, conn)
		_ = conn.Send(realtime.AckFrame(realtime.EventJoined, in.ConversationID))

	case realtime.EventLeaveConversation:
		h.Registry.Unsubscribe(in.ConversationID, conn)
		_ = conn.Send(realtime.AckFrame(realtime.EventLeft, in.ConversationID))

	case realtime.EventNewMessage:
		if principal != nil {
			_ = conn.Send(realtime.ErrorFrame(relay.Code(relay.ErrForbidden), "employees send messages over the REST API"))
			return
		}
		// no direct reply on success; the sender sees its message via the room
		res, err := h.Relay.Send(ctx, relay.SendRequest{
			ConversationID: in.ConversationID,
			Content:        in.Content,
			AttachmentRef:  in.ImageURL,
			Sender:         relay.Customer(),
			IdempotencyKey: strings.TrimSpace(in.ClientMessageID),
		})
		if err != nil {
			log.Debug("customer send rejected", "conversation_id", in.ConversationID, "code", relay.Code(err))
			_ = conn.Send(realtime.ErrorFrame(relay.Code(err), socketErrorText(err)))
			return
		}
		if res.Replayed {
			// a retry is usually a reconnect that missed the original broadcast
			_ = conn.Send(realtime.MessageFrame(res.Message))
		}

	default:
		_ = conn.Send(realtime.ErrorFrame("UnknownEvent", "unknown event type "+in.Type))
	}
}

// checkTenant verifies an employee only joins conversations of their company.
func (h *SocketHandler) checkTenant(ctx context.Context, p *middleware.Principal, conversationID string) error {
	var conv models.Conversation
	err := h.DB.WithContext(ctx).Select("id", "company_id").First(&conv, "id = ?", conversationID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return relay.ErrConversationNotFound
	case err != nil:
		return relay.ErrStoreUnavailable
	case conv.CompanyID != p.CompanyID:
		return relay.ErrForbidden
	}
	return nil
}

// socketErrorText keeps store and driver details out of frames sent to
// unauthenticated clients.
func socketErrorText(err error) string {
	switch relay.Code(err) {
	case "StoreUnavailable":
		return "service temporarily unavailable"
	case "Internal":
		return "failed to send message"
	}
	return err.Error()
}
