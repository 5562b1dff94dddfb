package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pairchat-service/internal/service"
)

type InviteHandler struct {
	svc *service.InviteService
}

func NewInviteHandler(svc *service.InviteService) *InviteHandler {
	return &InviteHandler{svc: svc}
}

func (h *InviteHandler) Send(c *gin.Context) {
	var req struct {
		RecipientID string `json:"recipient_id" binding:"required"`
		SenderName  string `json:"sender_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient_id is required"})
		return
	}
	recipientID, ok := normalizeID(req.RecipientID)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipient_id"})
		return
	}

	invite, created, err := h.svc.Send(c.Request.Context(), currentUserID(c), req.SenderName, recipientID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, invite)
}

// ListPending returns invites waiting for the caller's answer.
func (h *InviteHandler) ListPending(c *gin.Context) {
	invites, err := h.svc.ListPending(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

func (h *InviteHandler) Accept(c *gin.Context) {
	inviteID, ok := pathID(c, "invite_id")
	if !ok {
		return
	}

	chat, err := h.svc.Accept(c.Request.Context(), inviteID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

func (h *InviteHandler) Decline(c *gin.Context) {
	inviteID, ok := pathID(c, "invite_id")
	if !ok {
		return
	}

	invite, err := h.svc.Decline(c.Request.Context(), inviteID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invite)
}
