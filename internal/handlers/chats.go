package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pairchat-service/internal/models"
	"pairchat-service/internal/service"
)

type ChatHandler struct {
	svc *service.ChatService
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

func (h *ChatHandler) ListChats(c *gin.Context) {
	chats, err := h.svc.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// StartChat opens the chat with peer_id, creating it on first contact.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		PeerID string `json:"peer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "peer_id is required"})
		return
	}
	peerID, ok := normalizeID(req.PeerID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid peer_id"})
		return
	}

	chat, created, err := h.svc.Start(c.Request.Context(), currentUserID(c), peerID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"chat": chat, "created": created})
}

func (h *ChatHandler) UnreadCounts(c *gin.Context) {
	counts, err := h.svc.UnreadCounts(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": counts})
}

func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	chat, err := h.svc.Get(c.Request.Context(), chatID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// UpdateMyInfo refreshes the caller's name and image snapshot on one chat.
func (h *ChatHandler) UpdateMyInfo(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}
	var req models.ParticipantInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := h.svc.UpdateParticipantInfo(c.Request.Context(), chatID, currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

// DeleteChat removes the chat with all of its messages for both participants.
func (h *ChatHandler) DeleteChat(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	deleted, err := h.svc.Delete(c.Request.Context(), chatID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedMessages": deleted})
}

// ClearChat removes every message but keeps the chat.
func (h *ChatHandler) ClearChat(c *gin.Context) {
	chatID, ok := pathID(c, "chat_id")
	if !ok {
		return
	}

	deleted, err := h.svc.Clear(c.Request.Context(), chatID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedMessages": deleted})
}
