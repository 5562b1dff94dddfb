package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"pairchat-service/internal/imagestore"
)

type ImageStoreMock struct {
	mock.Mock
}

func (m *ImageStoreMock) Upload(ctx context.Context, req imagestore.UploadRequest) (imagestore.UploadResult, error) {
	args := m.Called(ctx, req)
	var res imagestore.UploadResult
	if val := args.Get(0); val != nil {
		res = val.(imagestore.UploadResult)
	}
	return res, args.Error(1)
}

func (m *ImageStoreMock) Delete(ctx context.Context, fileID string) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

type AuditorMock struct {
	mock.Mock
}

func (m *AuditorMock) Emit(ctx context.Context, level, action, text string, userID string) {
	m.Called(ctx, level, action, text, userID)
}

// NotifierRecorder keeps every topic it was notified about.
type NotifierRecorder struct {
	mu     sync.Mutex
	topics []string
}

func (n *NotifierRecorder) Notify(_ context.Context, topics ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.topics = append(n.topics, topics...)
}

func (n *NotifierRecorder) Topics() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.topics...)
}
