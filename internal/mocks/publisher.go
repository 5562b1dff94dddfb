package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pairchat-service/internal/models"
)

// PublisherMock records published events. Tests usually match on the routing key and the typed event.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Notifications returns every NotificationEvent passed to Publish.
func (m *PublisherMock) Notifications() []models.NotificationEvent {
	var out []models.NotificationEvent
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		if e, ok := call.Arguments.Get(2).(models.NotificationEvent); ok {
			out = append(out, e)
		}
	}
	return out
}
