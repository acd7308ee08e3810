package models

// Message is one immutable entry in the bounded chat log.
// Timestamp is Unix milliseconds, non-decreasing per process.
type Message struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

type SendMessageRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Content  string `json:"content"`
	ClientID string `json:"clientId"`
}

// WSEvent is the envelope for every frame on the socket channel.
// Event names match the browser client: "join-chat" and "send-message"
// inbound; "joined", "message-history", "new-message", "users-updated",
// "username-taken" and "error" outbound.
// Users and Messages must not carry omitempty: snapshot and broadcast
// frames have to deliver the array even when it is empty, and clients
// iterate it unconditionally. Producers hand over non-nil slices so
// the empty case marshals as [].
type WSEvent struct {
	Event    string    `json:"event"`
	Name     string    `json:"name,omitempty"`
	Content  string    `json:"content,omitempty"`
	Error    string    `json:"error,omitempty"`
	User     *User     `json:"user,omitempty"`
	Users    []User    `json:"users"`
	Message  *Message  `json:"message,omitempty"`
	Messages []Message `json:"messages"`
}
