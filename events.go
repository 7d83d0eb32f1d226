package goRealtime

import (
	"encoding/json"
	"time"
)

// Kind discriminates the closed set of event types the client publishes.
// Every inbound wire envelope resolves to exactly one Kind; envelopes whose
// type is outside this set are dropped, not wrapped in an escape hatch.
type Kind uint8

const (
	// KindMessage covers new, edited, and deleted chat messages.
	KindMessage Kind = iota
	// KindMessageStatus is a delivery/read state change for one message.
	KindMessageStatus
	// KindReaction is a reaction added to or removed from a message.
	KindReaction
	// KindTyping is a typing start/stop signal in a chat.
	KindTyping
	// KindPresence is a user going online or offline.
	KindPresence
	// KindChannelMembership is a user joining or leaving a chat channel.
	KindChannelMembership
	// KindChatLifecycle is a chat being created or updated.
	KindChatLifecycle
	// KindUpload is file upload progress, completion, or failure.
	KindUpload
	// KindConnection is a transport state transition.
	KindConnection
	// KindSessionInvalid signals that renewal was rejected and the client
	// must re-authenticate.
	KindSessionInvalid
	// KindPong is the server's reply to a client liveness probe.
	KindPong
	// KindServerError is an error envelope pushed by the server.
	KindServerError

	kindCount
)

// Event is implemented by every published event type. The set of
// implementations is closed; consumers switch exhaustively on the concrete
// type rather than on wire strings.
type Event interface {
	Kind() Kind
}

// MessageAction distinguishes the three message mutations sharing
// [KindMessage].
type MessageAction uint8

const (
	MessageNew MessageAction = iota
	MessageEdited
	MessageDeleted
)

// MessageEvent carries one chat message mutation. The message body stays
// opaque: rendering belongs to the UI layer, not the transport.
type MessageEvent struct {
	Action     MessageAction
	ChatID     string
	SenderID   string
	SenderName string
	Payload    json.RawMessage
}

func (MessageEvent) Kind() Kind { return KindMessage }

// MessageStatusEvent reports a delivery-state change for one message.
type MessageStatusEvent struct {
	MessageID string
	ChatID    string
	UserID    string
	Status    string
	Timestamp time.Time
}

func (MessageStatusEvent) Kind() Kind { return KindMessageStatus }

// ReactionEvent reports a reaction being added or removed.
type ReactionEvent struct {
	MessageID string
	ChatID    string
	UserID    string
	Username  string
	Reaction  string
	Action    string
	Timestamp time.Time
}

func (ReactionEvent) Kind() Kind { return KindReaction }

// TypingEvent reports a peer starting or stopping typing in a chat.
type TypingEvent struct {
	ChatID   string
	UserID   string
	Username string
	Typing   bool
}

func (TypingEvent) Kind() Kind { return KindTyping }

// PresenceEvent reports a user coming online or going offline.
type PresenceEvent struct {
	UserID   string
	Username string
	Online   bool
	LastSeen *time.Time
}

func (PresenceEvent) Kind() Kind { return KindPresence }

// ChannelMembershipEvent reports a user joining or leaving a chat channel.
type ChannelMembershipEvent struct {
	ChatID   string
	UserID   string
	Username string
	Joined   bool
}

func (ChannelMembershipEvent) Kind() Kind { return KindChannelMembership }

// ChatLifecycleEvent reports a chat being created or updated. The chat
// object passes through opaquely.
type ChatLifecycleEvent struct {
	ChatID  string
	Created bool
	Payload json.RawMessage
}

func (ChatLifecycleEvent) Kind() Kind { return KindChatLifecycle }

// UploadStage discriminates the three upload notifications sharing
// [KindUpload].
type UploadStage uint8

const (
	UploadProgress UploadStage = iota
	UploadComplete
	UploadFailed
)

// UploadEvent reports file upload progress for a chat.
type UploadEvent struct {
	UploadID string
	ChatID   string
	UserID   string
	FileName string
	Stage    UploadStage
	Progress int
	FileURL  string
	Error    string
}

func (UploadEvent) Kind() Kind { return KindUpload }

// ConnectionEvent reports a transport state transition. Attempt is the
// reconnect attempt counter at the time of the transition; Err is set when
// the transition was caused by a failure.
type ConnectionEvent struct {
	State   ConnectionState
	Attempt int
	Err     error
}

func (ConnectionEvent) Kind() Kind { return KindConnection }

// SessionInvalidEvent is published once when renewal is rejected and the
// stored credential has been cleared. The UI layer should route the user to
// re-authentication.
type SessionInvalidEvent struct {
	Cause error
}

func (SessionInvalidEvent) Kind() Kind { return KindSessionInvalid }

// PongEvent is the server's answer to a liveness probe.
type PongEvent struct {
	At time.Time
}

func (PongEvent) Kind() Kind { return KindPong }

// ServerErrorEvent is an error envelope pushed by the server.
type ServerErrorEvent struct {
	Message string
	Payload json.RawMessage
}

func (ServerErrorEvent) Kind() Kind { return KindServerError }
