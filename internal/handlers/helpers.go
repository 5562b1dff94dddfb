package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"pairchat-service/internal/auth"
	"pairchat-service/internal/imagestore"
	"pairchat-service/internal/logger"
	"pairchat-service/internal/middleware"
	"pairchat-service/internal/repositories"
	"pairchat-service/internal/service"
)

const genericError = "Something went wrong. Please try again."

func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.UserIDKey)
}

// pathID reads a uuid path parameter in its canonical lowercase form.
func pathID(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + strings.ReplaceAll(name, "_", " ")})
		return "", false
	}
	return id.String(), true
}

func normalizeID(raw string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// limitBody caps the request body at max bytes. Zero leaves it unlimited.
func limitBody(c *gin.Context, max int64) {
	if max > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
	}
}

func bodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

var errorStatuses = []struct {
	err    error
	status int
	msg    string
}{
	{repositories.ErrUserNotFound, http.StatusNotFound, "user not found"},
	{repositories.ErrChatNotFound, http.StatusNotFound, "chat not found"},
	{repositories.ErrInviteNotFound, http.StatusNotFound, "invite not found"},
	{repositories.ErrMessageNotFound, http.StatusNotFound, "message not found"},
	{repositories.ErrInviteNotPending, http.StatusConflict, "invite is no longer pending"},
	{repositories.ErrSelfChat, http.StatusBadRequest, "cannot chat with yourself"},
	{service.ErrSelfInvite, http.StatusBadRequest, "cannot invite yourself"},
	{service.ErrNotParticipant, http.StatusForbidden, "not a chat member"},
	{service.ErrNotSender, http.StatusForbidden, "only the sender can delete this message"},
	{service.ErrEmptyMessage, http.StatusBadRequest, "message content is required"},
	{service.ErrReplyNotFound, http.StatusBadRequest, "replied message not found"},
	{imagestore.ErrImageRequired, http.StatusBadRequest, imagestore.ErrImageRequired.Error()},
	{imagestore.ErrFileNameRequired, http.StatusBadRequest, imagestore.ErrFileNameRequired.Error()},
	{imagestore.ErrInvalidFormat, http.StatusBadRequest, imagestore.ErrInvalidFormat.Error()},
	{imagestore.ErrFileIDRequired, http.StatusBadRequest, imagestore.ErrFileIDRequired.Error()},
	{imagestore.ErrTooLarge, http.StatusRequestEntityTooLarge, imagestore.ErrTooLarge.Error()},
}

// respondError maps a service error to its HTTP status. Unknown errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	if authErr, ok := auth.AsError(err); ok {
		c.JSON(authStatus(authErr.Code), gin.H{"error": authErr.Message(), "code": authErr.Code})
		return
	}
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": e.msg})
			return
		}
	}

	logger.FromContext(c.Request.Context()).Error("request failed", zap.Error(err))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": genericError})
}

func authStatus(code string) int {
	switch code {
	case auth.CodeEmailInUse:
		return http.StatusConflict
	case auth.CodeWeakPassword, auth.CodeInvalidEmail:
		return http.StatusBadRequest
	case auth.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case auth.CodeNetworkFailed, auth.CodeOAuthDisabled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}
