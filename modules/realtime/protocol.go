package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound event names. Each dashed name is an alias of the spaced one.
const (
	EventSetup         = "setup"
	EventJoinChat      = "join chat"
	EventJoinRoom      = "join-room"
	EventTyping        = "typing"
	EventStopTyping    = "stop typing"
	EventStopTypingAlt = "stop-typing"
	EventNewMessage    = "new message"
	EventNewMessageAlt = "new-message"
)

// Outbound event names.
const (
	EventConnected       = "connected"
	EventMessageReceived = "message received"
)

var (
	errMissingUsers  = errors.New("chat.users not defined")
	errMissingSender = errors.New("sender.id not defined")
)

// Frame is the JSON envelope used in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// userRef is the identity object sent with setup.
type userRef struct {
	ID string `json:"id"`
}

type idRef struct {
	ID string `json:"id"`
}

// messageRef is the part of a resolved message the hub routes on. The rest
// of the payload is forwarded untouched.
type messageRef struct {
	ID     string `json:"id"`
	Sender idRef  `json:"sender"`
	Chat   *struct {
		ID    string  `json:"id"`
		Users []idRef `json:"users"`
	} `json:"chat"`
}

// parseMessage extracts the sender and the distinct recipient user IDs.
// The sender is never a recipient.
func parseMessage(data json.RawMessage) (senderID string, recipients []string, err error) {
	var msg messageRef
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", nil, fmt.Errorf("invalid message payload: %w", err)
	}
	if msg.Chat == nil || len(msg.Chat.Users) == 0 {
		return "", nil, errMissingUsers
	}
	if msg.Sender.ID == "" {
		return "", nil, errMissingSender
	}

	seen := make(map[string]struct{}, len(msg.Chat.Users))
	for _, u := range msg.Chat.Users {
		if u.ID == "" || u.ID == msg.Sender.ID {
			continue
		}
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		recipients = append(recipients, u.ID)
	}
	return msg.Sender.ID, recipients, nil
}

// parseChatID accepts a bare JSON string or an object with an id field.
func parseChatID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return id, nil
	}
	var ref idRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return "", fmt.Errorf("invalid chat id: %w", err)
	}
	return ref.ID, nil
}

func encodeFrame(event string, data any) ([]byte, error) {
	frame := Frame{Event: event}
	if data != nil {
		raw, ok := data.(json.RawMessage)
		if !ok {
			var err error
			if raw, err = json.Marshal(data); err != nil {
				return nil, err
			}
		}
		frame.Data = raw
	}
	return json.Marshal(frame)
}

// PersonalRoom is the room holding every connection of one user.
func PersonalRoom(userID string) string {
	return "user:" + userID
}

// ChatRoom is the room holding connections currently viewing a chat.
func ChatRoom(chatID string) string {
	return "chat:" + chatID
}
