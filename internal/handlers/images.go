package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pairchat-service/internal/imagestore"
	"pairchat-service/internal/logger"
	"pairchat-service/internal/observability"
	"pairchat-service/internal/service"
)

var errForbiddenFile = errors.New("Not allowed to delete this file")

// ChatMembership answers whether a user belongs to a chat.
type ChatMembership interface {
	IsParticipant(ctx context.Context, chatID string, userID string) (bool, error)
}

// ImageHandler is the upload and delete proxy in front of the image store.
type ImageHandler struct {
	images  service.ImageStore
	chats   ChatMembership
	maxBody int64
}

// NewImageHandler limits request bodies to maxBody bytes. Zero disables the limit.
func NewImageHandler(images service.ImageStore, chats ChatMembership, maxBody int64) *ImageHandler {
	return &ImageHandler{images: images, chats: chats, maxBody: maxBody}
}

func (h *ImageHandler) Upload(c *gin.Context) {
	limitBody(c, h.maxBody)

	var req imagestore.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if bodyTooLarge(err) {
			imageFailure(c, http.StatusRequestEntityTooLarge, "upload", imagestore.ErrTooLarge.Error())
			return
		}
		imageFailure(c, http.StatusBadRequest, "upload", "Invalid request body")
		return
	}

	result, err := h.images.Upload(c.Request.Context(), req)
	if err != nil {
		if status, ok := imageValidationStatus(err); ok {
			imageFailure(c, status, "upload", err.Error())
			return
		}
		logger.FromContext(c.Request.Context()).Error("image upload failed", zap.Error(err))
		imageFailure(c, http.StatusInternalServerError, "upload", "Image upload failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"url":      result.URL,
		"fileId":   result.FileID,
		"name":     result.Name,
		"size":     result.Size,
		"filePath": result.FilePath,
	})
}

// Delete removes a file from a chat folder of one of the caller's chats or from the caller's own folder.
func (h *ImageHandler) Delete(c *gin.Context) {
	var req struct {
		FileID string `json:"fileId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.FileID == "" {
		imageFailure(c, http.StatusBadRequest, "delete", imagestore.ErrFileIDRequired.Error())
		return
	}

	ctx := c.Request.Context()
	allowed, err := h.mayDelete(ctx, req.FileID, currentUserID(c))
	if err != nil {
		logger.FromContext(ctx).Error("image owner check failed", zap.String("file_id", req.FileID), zap.Error(err))
		imageFailure(c, http.StatusInternalServerError, "delete", "Image deletion failed")
		return
	}
	if !allowed {
		imageFailure(c, http.StatusForbidden, "delete", errForbiddenFile.Error())
		return
	}

	if err := h.images.Delete(ctx, req.FileID); err != nil {
		logger.FromContext(ctx).Error("image delete failed",
			zap.String("file_id", req.FileID), zap.Error(err))
		imageFailure(c, http.StatusInternalServerError, "delete", "Image deletion failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *ImageHandler) mayDelete(ctx context.Context, fileID, userID string) (bool, error) {
	chatID, ownerID, ok := imagestore.Owner(fileID)
	switch {
	case !ok:
		return false, nil
	case ownerID != "":
		return ownerID == userID, nil
	default:
		return h.chats.IsParticipant(ctx, chatID, userID)
	}
}

func imageValidationStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, imagestore.ErrImageRequired),
		errors.Is(err, imagestore.ErrFileNameRequired),
		errors.Is(err, imagestore.ErrInvalidFormat),
		errors.Is(err, imagestore.ErrFileIDRequired):
		return http.StatusBadRequest, true
	case errors.Is(err, imagestore.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, true
	}
	return 0, false
}

func imageFailure(c *gin.Context, status int, op, msg string) {
	observability.IncImageError(op)
	c.JSON(status, gin.H{"success": false, "error": msg})
}
