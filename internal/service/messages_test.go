package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pairchat-service/internal/imagestore"
	"pairchat-service/internal/mocks"
	"pairchat-service/internal/models"
	"pairchat-service/internal/repositories"
)

type messageDeps struct {
	chats    *mocks.ChatRepositoryMock
	messages *mocks.MessageRepositoryMock
	images   *mocks.ImageStoreMock
	notifier *mocks.NotifierRecorder
	pub      *mocks.PublisherMock
	audit    *mocks.AuditorMock
}

func newMessageService() (*MessageService, messageDeps) {
	d := messageDeps{
		chats:    new(mocks.ChatRepositoryMock),
		messages: new(mocks.MessageRepositoryMock),
		images:   new(mocks.ImageStoreMock),
		notifier: new(mocks.NotifierRecorder),
		pub:      new(mocks.PublisherMock),
		audit:    new(mocks.AuditorMock),
	}
	return NewMessageService(d.chats, d.messages, d.images, d.notifier, d.pub, d.audit), d
}

func echoCreate(d messageDeps) {
	d.messages.On("CreateMessage", mock.Anything, mock.Anything).Return(func(_ context.Context, msg models.Message) models.Message {
		msg.Timestamp = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		return msg
	}, nil)
}

func TestSendTextRejectsEmpty(t *testing.T) {
	svc, _ := newMessageService()
	_, err := svc.SendText(context.Background(), "c1", "u1", "   ", "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSendTextUpdatesLastMessageAndNotifies(t *testing.T) {
	svc, d := newMessageService()

	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.messages.On("CreateMessage", mock.Anything, mock.MatchedBy(func(m models.Message) bool {
		return m.ID != "" && m.ChatID == "c1" && m.Type == models.MessageText && m.ReplyTo == nil
	})).Return(models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Content: "hello", Type: models.MessageText}, nil).Once()
	d.chats.On("SetLastMessage", mock.Anything, "c1", mock.MatchedBy(func(l *models.LastMessage) bool {
		return l.Content == "hello" && l.SenderID == "u1" && l.Type == models.MessageText && !l.Timestamp.IsZero()
	})).Return(nil).Once()
	d.pub.On("Publish", mock.Anything, "notifications.message", mock.MatchedBy(func(e models.NotificationEvent) bool {
		return e.RecipientID == "u2" && e.SenderName == "user-u1" && e.Preview == "hello"
	})).Return(nil).Once()

	msg, err := svc.SendText(context.Background(), "c1", "u1", "hello", "")
	require.NoError(t, err)
	assert.False(t, msg.Read)
	assert.False(t, msg.Deleted)
	assert.ElementsMatch(t, []string{
		models.MessagesTopic("c1"),
		models.ChatsTopic("u1"),
		models.ChatsTopic("u2"),
	}, d.notifier.Topics())

	d.chats.AssertExpectations(t)
	d.messages.AssertExpectations(t)
	d.pub.AssertExpectations(t)
}

func TestSendTextCopiesReplySnapshot(t *testing.T) {
	svc, d := newMessageService()

	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.messages.On("GetMessage", mock.Anything, "m0").
		Return(models.Message{ID: "m0", ChatID: "c1", SenderID: "u2", Content: "original", Type: models.MessageText}, nil).Once()
	echoCreate(d)
	d.chats.On("SetLastMessage", mock.Anything, "c1", mock.Anything).Return(nil).Once()
	d.pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	msg, err := svc.SendText(context.Background(), "c1", "u1", "answer", "m0")
	require.NoError(t, err)
	require.NotNil(t, msg.ReplyTo)
	assert.Equal(t, models.ReplyRef{ID: "m0", Content: "original", SenderID: "u2", Type: models.MessageText}, *msg.ReplyTo)
}

func TestSendTextReplyFromOtherChat(t *testing.T) {
	svc, d := newMessageService()

	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.messages.On("GetMessage", mock.Anything, "m0").Return(models.Message{ID: "m0", ChatID: "c9"}, nil).Once()

	_, err := svc.SendText(context.Background(), "c1", "u1", "answer", "m0")
	assert.ErrorIs(t, err, ErrReplyNotFound)
	d.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestSendTextNotParticipant(t *testing.T) {
	svc, d := newMessageService()
	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()

	_, err := svc.SendText(context.Background(), "c1", "u3", "hi", "")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestSendImageUploadsToChatFolder(t *testing.T) {
	svc, d := newMessageService()

	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.images.On("Upload", mock.Anything, mock.MatchedBy(func(r imagestore.UploadRequest) bool {
		return r.Folder == "chat_images/c1" && strings.HasSuffix(r.FileName, "_cat_1.png") && r.Image == "data:image/png;base64,AAA="
	})).Return(imagestore.UploadResult{
		FileID:      "chat_images/c1/x_cat_1.png",
		URL:         "https://cdn/chat_images/c1/x_cat_1.png",
		Size:        2,
		ContentType: "image/png",
	}, nil).Once()
	echoCreate(d)
	d.chats.On("SetLastMessage", mock.Anything, "c1", mock.MatchedBy(func(l *models.LastMessage) bool {
		return l.Content == models.ImagePreview && l.Type == models.MessageImage
	})).Return(nil).Once()
	d.pub.On("Publish", mock.Anything, "notifications.message", mock.Anything).Return(nil).Once()

	msg, err := svc.SendImage(context.Background(), "c1", "u1", ImageInput{
		Image:    "data:image/png;base64,AAA=",
		FileName: "cat 1.png",
		Width:    10,
		Height:   20,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessageImage, msg.Type)
	assert.Equal(t, "https://cdn/chat_images/c1/x_cat_1.png", msg.Content)
	require.NotNil(t, msg.ImageID)
	assert.Equal(t, "chat_images/c1/x_cat_1.png", *msg.ImageID)
	require.NotNil(t, msg.ImageMeta)
	assert.Equal(t, "cat 1.png", msg.ImageMeta.OriginalName)
	assert.Equal(t, 20, msg.ImageMeta.Height)
	d.images.AssertExpectations(t)
}

func TestSendImageUploadFailure(t *testing.T) {
	svc, d := newMessageService()

	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.images.On("Upload", mock.Anything, mock.Anything).Return(imagestore.UploadResult{}, imagestore.ErrInvalidFormat).Once()

	_, err := svc.SendImage(context.Background(), "c1", "u1", ImageInput{Image: "bad", FileName: "a.png"})
	assert.ErrorIs(t, err, imagestore.ErrInvalidFormat)
	d.messages.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestDeleteTextMessageLeavesTombstone(t *testing.T) {
	svc, d := newMessageService()

	original := models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Content: "secret", Type: models.MessageText}
	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.messages.On("GetMessage", mock.Anything, "m1").Return(original, nil).Once()
	d.messages.On("MarkDeleted", mock.Anything, "m1", "u1", "This message was deleted").Return(original.Tombstone(), nil).Once()
	d.audit.On("Emit", mock.Anything, "info", "message.delete", mock.Anything, "u1").Once()

	msg, err := svc.Delete(context.Background(), "c1", "m1", "u1")
	require.NoError(t, err)
	assert.True(t, msg.Deleted)
	assert.Equal(t, "This message was deleted", msg.Content)
	assert.Equal(t, []string{models.MessagesTopic("c1")}, d.notifier.Topics())
	d.images.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteImageMessageIgnoresStoreFailure(t *testing.T) {
	svc, d := newMessageService()

	imageID := "chat_images/c1/a.png"
	original := models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Content: "https://cdn/a.png", Type: models.MessageImage, ImageID: &imageID}
	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.messages.On("GetMessage", mock.Anything, "m1").Return(original, nil).Once()
	d.images.On("Delete", mock.Anything, imageID).Return(assert.AnError).Once()
	d.messages.On("MarkDeleted", mock.Anything, "m1", "u1", "").Return(original.Tombstone(), nil).Once()
	d.audit.On("Emit", mock.Anything, "info", "message.delete", mock.Anything, "u1").Once()

	msg, err := svc.Delete(context.Background(), "c1", "m1", "u1")
	require.NoError(t, err)
	assert.True(t, msg.Deleted)
	assert.Equal(t, "", msg.Content)
	d.images.AssertExpectations(t)
	d.messages.AssertExpectations(t)
}

func TestDeleteMessageOnlySender(t *testing.T) {
	svc, d := newMessageService()

	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.messages.On("GetMessage", mock.Anything, "m1").
		Return(models.Message{ID: "m1", ChatID: "c1", SenderID: "u1", Type: models.MessageText}, nil).Once()

	_, err := svc.Delete(context.Background(), "c1", "m1", "u2")
	assert.ErrorIs(t, err, ErrNotSender)
	d.messages.AssertNotCalled(t, "MarkDeleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteMessageFromOtherChat(t *testing.T) {
	svc, d := newMessageService()

	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.messages.On("GetMessage", mock.Anything, "m1").Return(models.Message{ID: "m1", ChatID: "c2", SenderID: "u1"}, nil).Once()

	_, err := svc.Delete(context.Background(), "c1", "m1", "u1")
	assert.ErrorIs(t, err, repositories.ErrMessageNotFound)
}

func TestMarkReadNotifiesOnlyOnChange(t *testing.T) {
	svc, d := newMessageService()

	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Twice()
	d.messages.On("MarkRead", mock.Anything, "c1", "u2").Return([]string{"m1", "m2"}, nil).Once()
	d.messages.On("MarkRead", mock.Anything, "c1", "u2").Return([]string{}, nil).Once()

	ids, err := svc.MarkRead(context.Background(), "c1", "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)
	assert.Len(t, d.notifier.Topics(), 3)

	ids, err = svc.MarkRead(context.Background(), "c1", "u2")
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Len(t, d.notifier.Topics(), 3)
}

func TestReadStatus(t *testing.T) {
	svc, d := newMessageService()

	d.chats.On("GetChat", mock.Anything, "c1").Return(testChat("c1", "u1", "u2"), nil).Once()
	d.messages.On("ReadMessageIDs", mock.Anything, "c1", "u1").Return([]string{"m1"}, nil).Once()

	ids, err := svc.ReadStatus(context.Background(), "c1", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, ids)
}
