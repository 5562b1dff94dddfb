package models

// Realtime topics. A change to the rows behind a topic re-runs every query subscribed to it.

func ChatsTopic(userID string) string {
	return "chats:" + userID
}

func MessagesTopic(chatID string) string {
	return "messages:" + chatID
}

func InvitesTopic(userID string) string {
	return "invites:" + userID
}
