package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pairchat-service/internal/imagestore"
	"pairchat-service/internal/service"
)

type MessageHandler struct {
	svc          *service.MessageService
	maxImageBody int64
}

// NewMessageHandler caps image message bodies at maxImageBody bytes. Zero disables the cap.
func NewMessageHandler(svc *service.MessageService, maxImageBody int64) *MessageHandler {
	return &MessageHandler{svc: svc, maxImageBody: maxImageBody}
}

func (h *MessageHandler) ListMessages(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	messages, err := h.svc.List(c.Request.Context(), chatID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *MessageHandler) SendText(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
		ReplyTo string `json:"reply_to"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	replyTo, ok := optionalID(c, req.ReplyTo)
	if !ok {
		return
	}

	msg, err := h.svc.SendText(c.Request.Context(), chatID, currentUserID(c), req.Content, replyTo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// SendImage uploads a data URL image and posts it as a message.
func (h *MessageHandler) SendImage(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	var req struct {
		Image    string `json:"image"`
		FileName string `json:"fileName"`
		Width    int    `json:"width"`
		Height   int    `json:"height"`
		ReplyTo  string `json:"reply_to"`
	}
	limitBody(c, h.maxImageBody)
	if err := c.ShouldBindJSON(&req); err != nil {
		if bodyTooLarge(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": imagestore.ErrTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	replyTo, ok := optionalID(c, req.ReplyTo)
	if !ok {
		return
	}

	msg, err := h.svc.SendImage(c.Request.Context(), chatID, currentUserID(c), service.ImageInput{
		Image:     req.Image,
		FileName:  req.FileName,
		Width:     req.Width,
		Height:    req.Height,
		ReplyToID: replyTo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// DeleteMessage replaces the caller's own message with a tombstone.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "message_id")
	if !ok {
		return
	}

	msg, err := h.svc.Delete(c.Request.Context(), chatID, messageID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	ids, err := h.svc.MarkRead(c.Request.Context(), chatID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": ids})
}

func (h *MessageHandler) ReadStatus(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	ids, err := h.svc.ReadStatus(c.Request.Context(), chatID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"read": ids})
}

func optionalID(c *gin.Context, raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return "", true
	}
	id, ok := normalizeID(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reply_to"})
		return "", false
	}
	return id, true
}
