package ws

import (
	"time"

	"go.uber.org/zap"

	"pairchat-service/internal/observability"
)

// ConnInfo describes one authenticated realtime connection.
type ConnInfo struct {
	observability.ClientMeta
	ConnID      string
	UserID      string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func (i ConnInfo) logFields() []zap.Field {
	return []zap.Field{
		zap.String("conn_id", i.ConnID),
		zap.String("user_id", i.UserID),
		zap.String("ip", i.IP),
		zap.String("device_id", i.DeviceID),
		zap.String("trace_id", i.TraceID),
	}
}
