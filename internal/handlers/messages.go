package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"mentorly/api/internal/middleware"
	"mentorly/api/internal/models"
	"mentorly/api/internal/service"
)

type messageResponse struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversationId"`
	SenderID       string     `json:"senderId"`
	SenderRole     string     `json:"senderRole"`
	ReceiverID     string     `json:"receiverId"`
	ReceiverRole   string     `json:"receiverRole"`
	Content        string     `json:"content"`
	IsRead         bool       `json:"isRead"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	Cursor         int64      `json:"cursor"`
}

func toMessageResponse(msg models.Message) messageResponse {
	return messageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		SenderRole:     string(msg.SenderRole),
		ReceiverID:     msg.ReceiverID,
		ReceiverRole:   string(msg.ReceiverRole),
		Content:        msg.Content,
		IsRead:         msg.IsRead,
		ReadAt:         msg.ReadAt,
		CreatedAt:      msg.CreatedAt,
		Cursor:         msg.Seq,
	}
}

type sendMessageRequest struct {
	ReceiverID   string `json:"receiverId" binding:"required"`
	ReceiverRole string `json:"receiverRole" binding:"required,oneof=student mentor admin"`
	Content      string `json:"content" binding:"required"`
}

func (h HandlerSet) SendMessage(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error"})
		return
	}

	msg, err := h.messaging.Send(c.Request.Context(),
		identity.ID, identity.Role,
		req.ReceiverID, models.Role(req.ReceiverRole),
		req.Content,
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty_content"})
		case errors.Is(err, service.ErrContentTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": "content_too_long"})
		case errors.Is(err, service.ErrSelfMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "self_message"})
		default:
			h.log.Error().Err(err).Msg("send message failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "send_failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": toMessageResponse(msg)})
}

func (h HandlerSet) ListConversationMessages(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	counterpartID := c.Param("counterpartId")
	if counterpartID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "counterpartId required"})
		return
	}

	var afterSeq int64
	if after := c.Query("after"); after != "" {
		v, err := strconv.ParseInt(after, 10, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_cursor"})
			return
		}
		afterSeq = v
	}

	messages, next, err := h.messaging.ListConversationWith(c.Request.Context(), identity.ID, counterpartID, afterSeq)
	if err != nil {
		h.log.Error().Err(err).Msg("list conversation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}

	items := make([]messageResponse, 0, len(messages))
	for _, msg := range messages {
		items = append(items, toMessageResponse(msg))
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":   items,
		"nextCursor": next,
	})
}

func (h HandlerSet) MarkMessageRead(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	messageID := c.Param("id")
	msg, err := h.messaging.MarkRead(c.Request.Context(), messageID, identity.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "message_not_found"})
		case errors.Is(err, service.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": "not_authorized"})
		default:
			h.log.Error().Err(err).Str("message_id", messageID).Msg("mark read failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "mark_read_failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": toMessageResponse(msg)})
}

type conversationResponse struct {
	ConversationID  string    `json:"conversationId"`
	CounterpartID   string    `json:"counterpartId"`
	CounterpartName string    `json:"counterpartName"`
	CounterpartRole string    `json:"counterpartRole"`
	LastMessage     string    `json:"lastMessage"`
	LastSenderID    string    `json:"lastSenderId"`
	LastActivity    time.Time `json:"lastActivity"`
	UnreadCount     int       `json:"unreadCount"`
}

func (h HandlerSet) ListConversations(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	summaries, err := h.messaging.Conversations(c.Request.Context(), identity.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("list conversations failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}

	items := make([]conversationResponse, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, conversationResponse{
			ConversationID:  s.ConversationID,
			CounterpartID:   s.CounterpartID,
			CounterpartName: s.CounterpartName,
			CounterpartRole: string(s.CounterpartRole),
			LastMessage:     s.LastMessage,
			LastSenderID:    s.LastSenderID,
			LastActivity:    s.LastActivity,
			UnreadCount:     s.UnreadCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{"conversations": items})
}

// UnreadCount backs the client polling loop. Each call recomputes from the
// store; there is deliberately no server-side cache or push channel.
func (h HandlerSet) UnreadCount(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	count, err := h.messaging.CountUnread(c.Request.Context(), identity.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("count unread failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
