package goRealtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Envelope is the wire unit exchanged over the duplex connection: an event
// name plus an event-specific payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Wire event names, fixed by the chat backend.
const (
	wireNewMessage      = "new_message"
	wireMessageStatus   = "message_status"
	wireMessageReaction = "message_reaction"
	wireMessageDeleted  = "message_deleted"
	wireMessageEdited   = "message_edited"

	wireTypingStart = "typing_start"
	wireTypingStop  = "typing_stop"

	wireUserOnline    = "user_online"
	wireUserOffline   = "user_offline"
	wireUserJoinChat  = "user_join_chat"
	wireUserLeaveChat = "user_leave_chat"

	wireChatCreated = "chat_created"
	wireChatUpdated = "chat_updated"

	wireUploadProgress = "file_upload_progress"
	wireUploadComplete = "file_upload_complete"
	wireUploadError    = "file_upload_error"

	wireError = "error"
	wirePing  = "ping"
	wirePong  = "pong"
)

// errUnknownEnvelopeType marks envelopes whose type is outside the closed
// event set. They are counted and dropped, never fatal.
var errUnknownEnvelopeType = errors.New("unknown envelope type")

type wireMessagePayload struct {
	ChatID     string          `json:"chatId"`
	SenderID   string          `json:"senderId"`
	SenderName string          `json:"senderName"`
	Message    json.RawMessage `json:"message"`
}

type wireStatusPayload struct {
	MessageID string    `json:"messageId"`
	ChatID    string    `json:"chatId"`
	Status    string    `json:"status"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

type wireReactionPayload struct {
	MessageID string    `json:"messageId"`
	ChatID    string    `json:"chatId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Reaction  string    `json:"reaction"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

type wireTypingPayload struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

type wirePresencePayload struct {
	UserID   string     `json:"userId"`
	Username string     `json:"username"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

type wireChatActionPayload struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Action   string `json:"action,omitempty"`
}

type wireUploadPayload struct {
	UploadID string `json:"uploadId"`
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	FileName string `json:"fileName"`
	Progress int    `json:"progress,omitempty"`
	FileURL  string `json:"fileUrl,omitempty"`
	Error    string `json:"error,omitempty"`
}

type wireErrorPayload struct {
	Message string `json:"message"`
}

type wirePingPayload struct {
	Timestamp time.Time `json:"timestamp"`
}

// decodeEnvelope parses one inbound frame into its typed event. A frame
// that is not valid JSON, or whose payload does not match its type, is an
// error; a well-formed frame of an unknown type is [errUnknownEnvelopeType].
func decodeEnvelope(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("envelope: %w", err)
	}
	if env.Type == "" {
		return nil, errors.New("envelope: missing type")
	}

	switch env.Type {
	case wireNewMessage, wireMessageEdited, wireMessageDeleted:
		var p wireMessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		action := MessageNew
		switch env.Type {
		case wireMessageEdited:
			action = MessageEdited
		case wireMessageDeleted:
			action = MessageDeleted
		}
		payload := p.Message
		if payload == nil {
			payload = env.Payload
		}
		return MessageEvent{
			Action:     action,
			ChatID:     p.ChatID,
			SenderID:   p.SenderID,
			SenderName: p.SenderName,
			Payload:    payload,
		}, nil

	case wireMessageStatus:
		var p wireStatusPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		return MessageStatusEvent{
			MessageID: p.MessageID,
			ChatID:    p.ChatID,
			UserID:    p.UserID,
			Status:    p.Status,
			Timestamp: p.Timestamp,
		}, nil

	case wireMessageReaction:
		var p wireReactionPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		return ReactionEvent{
			MessageID: p.MessageID,
			ChatID:    p.ChatID,
			UserID:    p.UserID,
			Username:  p.Username,
			Reaction:  p.Reaction,
			Action:    p.Action,
			Timestamp: p.Timestamp,
		}, nil

	case wireTypingStart, wireTypingStop:
		var p wireTypingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		return TypingEvent{
			ChatID:   p.ChatID,
			UserID:   p.UserID,
			Username: p.Username,
			Typing:   env.Type == wireTypingStart,
		}, nil

	case wireUserOnline, wireUserOffline:
		var p wirePresencePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		return PresenceEvent{
			UserID:   p.UserID,
			Username: p.Username,
			Online:   env.Type == wireUserOnline,
			LastSeen: p.LastSeen,
		}, nil

	case wireUserJoinChat, wireUserLeaveChat:
		var p wireChatActionPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		return ChannelMembershipEvent{
			ChatID:   p.ChatID,
			UserID:   p.UserID,
			Username: p.Username,
			Joined:   env.Type == wireUserJoinChat,
		}, nil

	case wireChatCreated, wireChatUpdated:
		var p wireChatActionPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		return ChatLifecycleEvent{
			ChatID:  p.ChatID,
			Created: env.Type == wireChatCreated,
			Payload: env.Payload,
		}, nil

	case wireUploadProgress, wireUploadComplete, wireUploadError:
		var p wireUploadPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		stage := UploadProgress
		switch env.Type {
		case wireUploadComplete:
			stage = UploadComplete
		case wireUploadError:
			stage = UploadFailed
		}
		return UploadEvent{
			UploadID: p.UploadID,
			ChatID:   p.ChatID,
			UserID:   p.UserID,
			FileName: p.FileName,
			Stage:    stage,
			Progress: p.Progress,
			FileURL:  p.FileURL,
			Error:    p.Error,
		}, nil

	case wireError:
		var p wireErrorPayload
		// The error payload shape varies by server version; keep the raw
		// bytes either way.
		_ = json.Unmarshal(env.Payload, &p)
		return ServerErrorEvent{
			Message: p.Message,
			Payload: env.Payload,
		}, nil

	case wirePong:
		var p wirePingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		return PongEvent{At: p.Timestamp}, nil

	default:
		return nil, fmt.Errorf("%w: %q", errUnknownEnvelopeType, env.Type)
	}
}

// encodeEnvelope builds one outbound frame.
func encodeEnvelope(wireType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s payload: %w", wireType, err)
	}
	return json.Marshal(Envelope{Type: wireType, Payload: raw})
}
