package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pairchat-service/internal/mocks"
	"pairchat-service/internal/models"
	"pairchat-service/internal/repositories"
)

type chatDeps struct {
	chats    *mocks.ChatRepositoryMock
	messages *mocks.MessageRepositoryMock
	users    *mocks.UserRepositoryMock
	images   *mocks.ImageStoreMock
	notifier *mocks.NotifierRecorder
	audit    *mocks.AuditorMock
}

func newChatService() (*ChatService, chatDeps) {
	d := chatDeps{
		chats:    new(mocks.ChatRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
		users:    new(mocks.UserRepositoryMock),
		images:   new(mocks.ImageStoreMock),
		notifier: new(mocks.NotifierRecorder),
		audit:    new(mocks.AuditorMock),
	}
	return NewChatService(d.chats, d.messages, d.users, d.images, d.notifier, d.audit), d
}

func testChat(id, a, b string) models.Chat {
	u1, u2 := models.SortedPair(a, b)
	chat := models.Chat{
		ID:      id,
		User1ID: u1,
		User2ID: u2,
		ParticipantInfo: models.ParticipantInfoMap{
			a: {Name: "user-" + a},
			b: {Name: "user-" + b},
		},
	}
	chat.Fill()
	return chat
}

func TestStartChatRejectsSelf(t *testing.T) {
	svc, _ := newChatService()
	_, _, err := svc.Start(context.Background(), "u1", "u1")
	assert.ErrorIs(t, err, repositories.ErrSelfChat)
}

func TestStartChatExistingDoesNotNotify(t *testing.T) {
	svc, d := newChatService()

	d.users.On("GetUser", mock.Anything, "u2").Return(models.User{ID: "u2", Name: "Bob"}, nil)
	d.users.On("GetUser", mock.Anything, "u1").Return(models.User{ID: "u1", Name: "Ann"}, nil).Once()
	d.chats.On("CreateOrGetChat", mock.Anything, "u1", "u2", mock.Anything).Return(testChat("c1", "u1", "u2"), false, nil).Once()

	chat, created, err := svc.Start(context.Background(), "u1", "u2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "c1", chat.ID)
	assert.Empty(t, d.notifier.Topics())
}

func TestListChatsWithUnreadCounts(t *testing.T) {
	svc, d := newChatService()

	d.chats.On("ListChats", mock.Anything, "u1").Return([]models.Chat{
		testChat("c1", "u1", "u2"),
		testChat("c2", "u1", "u3"),
	}, nil).Once()
	d.messages.On("CountUnread", mock.Anything, "c1", "u1").Return(4, nil).Once()
	d.messages.On("CountUnread", mock.Anything, "c2", "u1").Return(0, assert.AnError).Once()

	list, err := svc.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "u2", list[0].PeerID)
	assert.Equal(t, 4, list[0].UnreadCount)
	assert.Equal(t, 0, list[1].UnreadCount)
}

func TestUnreadCountsSkipsFailingChat(t *testing.T) {
	svc, d := newChatService()

	d.chats.On("ListChats", mock.Anything, "u1").Return([]models.Chat{
		testChat("c1", "u1", "u2"),
		testChat("c2", "u1", "u3"),
	}, nil).Once()
	d.messages.On("CountUnread", mock.Anything, "c1", "u1").Return(0, assert.AnError).Once()
	d.messages.On("CountUnread", mock.Anything, "c2", "u1").Return(2, nil).Once()

	counts, err := svc.UnreadCounts(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"c2": 2}, counts)
}

func TestGetChatNotParticipant(t *testing.T) {
	svc, d := newChatService()
	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()

	_, err := svc.Get(context.Background(), "c1", "u3")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestDeleteChatCascades(t *testing.T) {
	svc, d := newChatService()

	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.messages.On("ListImageIDs", mock.Anything, "c1").Return([]string{"img1", "img2"}, nil).Once()
	d.images.On("Delete", mock.Anything, "img1").Return(nil).Once()
	d.images.On("Delete", mock.Anything, "img2").Return(assert.AnError).Once()
	d.messages.On("DeleteChatMessagesBatch", mock.Anything, "c1", MessageBatchSize).Return(MessageBatchSize, nil).Once()
	d.messages.On("DeleteChatMessagesBatch", mock.Anything, "c1", MessageBatchSize).Return(3, nil).Once()
	d.chats.On("DeleteChat", mock.Anything, "c1").Return(nil).Once()
	d.audit.On("Emit", mock.Anything, "info", "chat.delete", mock.Anything, "u1").Once()

	deleted, err := svc.Delete(context.Background(), "c1", "u1")
	require.NoError(t, err)
	assert.Equal(t, MessageBatchSize+3, deleted)
	assert.ElementsMatch(t, []string{
		models.MessagesTopic("c1"),
		models.ChatsTopic("u1"),
		models.ChatsTopic("u2"),
	}, d.notifier.Topics())

	d.chats.AssertExpectations(t)
	d.messages.AssertExpectations(t)
	d.images.AssertExpectations(t)
	d.audit.AssertExpectations(t)
}

func TestDeleteChatStopsWhenMessagesFail(t *testing.T) {
	svc, d := newChatService()

	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.messages.On("ListImageIDs", mock.Anything, "c1").Return([]string{}, nil).Once()
	d.messages.On("DeleteChatMessagesBatch", mock.Anything, "c1", MessageBatchSize).Return(0, assert.AnError).Once()

	_, err := svc.Delete(context.Background(), "c1", "u1")
	assert.ErrorIs(t, err, assert.AnError)
	d.chats.AssertNotCalled(t, "DeleteChat", mock.Anything, mock.Anything)
}

func TestDeleteChatNotParticipant(t *testing.T) {
	svc, d := newChatService()
	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()

	_, err := svc.Delete(context.Background(), "c1", "u9")
	assert.ErrorIs(t, err, ErrNotParticipant)
	d.messages.AssertNotCalled(t, "ListImageIDs", mock.Anything, mock.Anything)
}

func TestClearChatLeavesSystemPreview(t *testing.T) {
	svc, d := newChatService()

	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.messages.On("ListImageIDs", mock.Anything, "c1").Return([]string{}, nil).Once()
	d.messages.On("DeleteChatMessagesBatch", mock.Anything, "c1", MessageBatchSize).Return(2, nil).Once()
	d.chats.On("SetLastMessage", mock.Anything, "c1", mock.MatchedBy(func(l *models.LastMessage) bool {
		return l.Content == "No messages" && l.Type == models.MessageSystem && l.SenderID == ""
	})).Return(nil).Once()
	d.audit.On("Emit", mock.Anything, "info", "chat.clear", mock.Anything, "u2").Once()

	n, err := svc.Clear(context.Background(), "c1", "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	d.chats.AssertExpectations(t)
	d.chats.AssertNotCalled(t, "DeleteChat", mock.Anything, mock.Anything)
}

func TestUpdateParticipantInfoKeepsNameWhenBlank(t *testing.T) {
	svc, d := newChatService()
	chat := testChat("c1", "u1", "u2")
	image := "https://img/new.png"

	d.chats.On("GetChat", mock.Anything, "c1").Return(chat, nil).Once()
	d.chats.On("UpdateParticipantInfo", mock.Anything, "c1", "u1", models.ParticipantInfo{Name: "user-u1", Image: &image}).
		Return(chat, nil).Once()

	_, err := svc.UpdateParticipantInfo(context.Background(), "c1", "u1", models.ParticipantInfo{Image: &image})
	require.NoError(t, err)
	d.chats.AssertExpectations(t)
}
