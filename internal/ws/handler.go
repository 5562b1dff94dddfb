package ws

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"pairchat-service/internal/auth"
	"pairchat-service/internal/logger"
	"pairchat-service/internal/observability"
)

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Handler upgrades authenticated requests to realtime connections.
type Handler struct {
	hub    *Hub
	tokens TokenVerifier
	log    *zap.Logger
}

func NewHandler(hub *Hub, tokens TokenVerifier, log *zap.Logger) *Handler {
	return &Handler{hub: hub, tokens: tokens, log: log}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handle authenticates the token, upgrades the connection and starts the pumps.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("pairchat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	claims, err := h.tokens.Verify(token)
	if token == "" || err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.MessageFor(auth.CodeUnauthenticated), "code": auth.CodeUnauthenticated})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	info := ConnInfo{
		ClientMeta:  observability.ClientMetaFromRequest(c.Request),
		ConnID:      newConnID(),
		UserID:      claims.UserID,
		RequestID:   logger.RequestIDFromContext(ctx),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	connLog := h.log.With(info.logFields()...)

	client := NewClient(h.hub, conn, info)
	h.hub.Register(client)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	connLog.Info("websocket connected", zap.String("request_id", info.RequestID))

	// Subscription queries outlive the upgrade request.
	connCtx := logger.WithContext(context.WithoutCancel(ctx), connLog)

	go client.WritePump()
	go func() {
		reason := client.ReadPump(connCtx)
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		connLog.Info("websocket disconnected",
			zap.Duration("duration", time.Since(info.ConnectedAt)),
			zap.String("reason", reason),
		)
	}()
}
