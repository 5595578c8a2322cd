package chat

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	domain "github.com/example/realtime-chat/domain/chat"
)

// Service names registered by the chat module.
const (
	ServiceAccessChat   = "access-chat"
	ServiceListChats    = "list-chats"
	ServiceCreateGroup  = "create-group"
	ServiceRenameChat   = "rename-chat"
	ServiceAddMember    = "add-member"
	ServiceRemoveMember = "remove-member"
	ServiceSendMessage  = "send-message"
	ServiceListMessages = "list-messages"
)

// Validation constants
const (
	MaxChatNameLength = 100
	MaxMessageLength  = 5000
	MinGroupInvitees  = 3
)

var (
	ErrMissingFields   = errors.New("please fill all the fields")
	ErrSelfChat        = errors.New("cannot start a chat with yourself")
	ErrGroupTooSmall   = errors.New("more than 2 users are required to form a group chat")
	ErrChatNotFound    = errors.New("chat not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotGroupChat    = errors.New("operation requires a group chat")
	ErrChatNameTooLong = errors.New("chat name exceeds maximum length")
	ErrMessageTooLong  = errors.New("message exceeds maximum length")
	ErrMessageInvalid  = errors.New("message contains invalid characters")

	// ErrForbidden is wrapped by every authorization failure.
	ErrForbidden        = errors.New("forbidden")
	ErrNotMember        = fmt.Errorf("%w: not a member of this chat", ErrForbidden)
	ErrNotAdmin         = fmt.Errorf("%w: only the group admin can add members", ErrForbidden)
	ErrRemoveNotAllowed = fmt.Errorf("%w: only the group admin or the member themselves can remove a member", ErrForbidden)
)

// ValidateChatName validates a group chat name.
func ValidateChatName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrMissingFields
	}
	if utf8.RuneCountInString(name) > MaxChatNameLength {
		return ErrChatNameTooLong
	}
	return nil
}

// ValidateMessage validates message content.
func ValidateMessage(content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrMissingFields
	}
	if !utf8.ValidString(content) {
		return ErrMessageInvalid
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// AccessChatRequest finds or creates the 1:1 chat between two users.
type AccessChatRequest struct {
	UserID       string `json:"user_id"`
	TargetUserID string `json:"target_user_id"`
}

// ListChatsRequest lists the chats of a user.
type ListChatsRequest struct {
	UserID string `json:"user_id"`
}

// CreateGroupRequest creates a group chat administered by UserID.
type CreateGroupRequest struct {
	UserID  string   `json:"user_id"`
	Name    string   `json:"name"`
	UserIDs []string `json:"user_ids"`
}

// RenameChatRequest renames a chat.
type RenameChatRequest struct {
	UserID string `json:"user_id"`
	ChatID string `json:"chat_id"`
	Name   string `json:"name"`
}

// MemberRequest adds or removes MemberID.
type MemberRequest struct {
	UserID   string `json:"user_id"`
	ChatID   string `json:"chat_id"`
	MemberID string `json:"member_id"`
}

// SendMessageRequest stores a message.
type SendMessageRequest struct {
	UserID  string `json:"user_id"`
	ChatID  string `json:"chat_id"`
	Content string `json:"content"`
}

// ListMessagesRequest lists the messages of a chat.
type ListMessagesRequest struct {
	UserID string `json:"user_id"`
	ChatID string `json:"chat_id"`
}

// ChatResponse carries one resolved chat.
type ChatResponse struct {
	Chat  domain.ChatView `json:"chat"`
	Error string          `json:"error,omitempty"`
}

// ChatListResponse carries resolved chats.
type ChatListResponse struct {
	Chats []domain.ChatView `json:"chats"`
	Error string            `json:"error,omitempty"`
}

// MessageResponse carries one resolved message.
type MessageResponse struct {
	Message domain.MessageView `json:"message"`
	Error   string             `json:"error,omitempty"`
}

// MessageListResponse carries resolved messages.
type MessageListResponse struct {
	Messages []domain.MessageView `json:"messages"`
	Error    string               `json:"error,omitempty"`
}
