package ws

import (
	"context"
	"errors"

	"pairchat-service/internal/models"
	"pairchat-service/internal/repositories"
	"pairchat-service/internal/service"
)

const (
	QueryChats        = "chats"
	QueryMessages     = "messages"
	QueryInvites      = "invites"
	QueryReadStatus   = "read_status"
	QueryUnreadCounts = "unread_counts"
)

const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"

	FrameSnapshot = "snapshot"
	FrameError    = "error"
)

var (
	errUnknownQuery  = errors.New("unknown query")
	errUnknownAction = errors.New("unknown action")
	errMissingID     = errors.New("subscription id is required")
	errMissingChatID = errors.New("chat_id is required")
)

// Source runs the queries clients can subscribe to.
type Source interface {
	ListChats(ctx context.Context, userID string) ([]models.ChatSummary, error)
	ListMessages(ctx context.Context, userID, chatID string) ([]models.Message, error)
	ListPendingInvites(ctx context.Context, userID string) ([]models.Invite, error)
	ReadStatus(ctx context.Context, userID, chatID string) ([]string, error)
	UnreadCounts(ctx context.Context, userID string) (map[string]int, error)
}

// ClientFrame is a request sent by the browser.
type ClientFrame struct {
	Action string `json:"action"`
	ID     string `json:"id"`
	Query  string `json:"query,omitempty"`
	ChatID string `json:"chat_id,omitempty"`
}

// ServerFrame carries either the full result set of a subscription or an error.
type ServerFrame struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Query string `json:"query,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// topicsFor lists the topics whose changes affect the query's result.
func topicsFor(userID, query, chatID string) ([]string, error) {
	switch query {
	case QueryChats, QueryUnreadCounts:
		return []string{models.ChatsTopic(userID)}, nil
	case QueryInvites:
		return []string{models.InvitesTopic(userID)}, nil
	case QueryMessages, QueryReadStatus:
		if chatID == "" {
			return nil, errMissingChatID
		}
		return []string{models.MessagesTopic(chatID)}, nil
	default:
		return nil, errUnknownQuery
	}
}

func runQuery(ctx context.Context, src Source, userID, query, chatID string) (any, error) {
	switch query {
	case QueryChats:
		return src.ListChats(ctx, userID)
	case QueryMessages:
		return src.ListMessages(ctx, userID, chatID)
	case QueryInvites:
		return src.ListPendingInvites(ctx, userID)
	case QueryReadStatus:
		return src.ReadStatus(ctx, userID, chatID)
	case QueryUnreadCounts:
		return src.UnreadCounts(ctx, userID)
	default:
		return nil, errUnknownQuery
	}
}

// publicError is the text sent to the client for a failed query.
func publicError(err error) string {
	switch {
	case errors.Is(err, errUnknownQuery),
		errors.Is(err, errUnknownAction),
		errors.Is(err, errMissingID),
		errors.Is(err, errMissingChatID):
		return err.Error()
	case errors.Is(err, service.ErrNotParticipant):
		return "not authorized for chat"
	case errors.Is(err, repositories.ErrChatNotFound):
		return "chat not found"
	default:
		return "query failed"
	}
}
