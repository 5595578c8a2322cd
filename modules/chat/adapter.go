package chat

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// ChatPort defines the conversation store operations used by the gateway.
type ChatPort interface {
	AccessChat(ctx context.Context, callerID, targetUserID string) (*domain.ChatView, error)
	ListChats(ctx context.Context, callerID string) ([]domain.ChatView, error)
	CreateGroup(ctx context.Context, callerID, name string, userIDs []string) (*domain.ChatView, error)
	RenameChat(ctx context.Context, callerID, chatID, name string) (*domain.ChatView, error)
	AddMember(ctx context.Context, callerID, chatID, memberID string) (*domain.ChatView, error)
	RemoveMember(ctx context.Context, callerID, chatID, memberID string) (*domain.ChatView, error)
	SendMessage(ctx context.Context, callerID, chatID, content string) (*domain.MessageView, error)
	ListMessages(ctx context.Context, callerID, chatID string) ([]domain.MessageView, error)
}

// ChatAdapter implements ChatPort using the service container.
type ChatAdapter struct {
	container mono.ServiceContainer
}

var _ ChatPort = (*ChatAdapter)(nil)

// NewChatAdapter creates a new ChatAdapter.
func NewChatAdapter(container mono.ServiceContainer) *ChatAdapter {
	if container == nil {
		panic("chat: ServiceContainer is nil")
	}
	return &ChatAdapter{container: container}
}

// AccessChat returns the 1:1 chat with targetUserID, creating it on first access.
func (a *ChatAdapter) AccessChat(ctx context.Context, callerID, targetUserID string) (*domain.ChatView, error) {
	req := AccessChatRequest{UserID: callerID, TargetUserID: targetUserID}
	var resp ChatResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceAccessChat,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceAccessChat, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceAccessChat, remoteError(resp.Error))
	}
	return &resp.Chat, nil
}

// ListChats returns the caller's chats, most recently updated first.
func (a *ChatAdapter) ListChats(ctx context.Context, callerID string) ([]domain.ChatView, error) {
	req := ListChatsRequest{UserID: callerID}
	var resp ChatListResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListChats,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceListChats, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceListChats, remoteError(resp.Error))
	}
	return resp.Chats, nil
}

// CreateGroup creates a group chat administered by the caller.
func (a *ChatAdapter) CreateGroup(ctx context.Context, callerID, name string, userIDs []string) (*domain.ChatView, error) {
	req := CreateGroupRequest{UserID: callerID, Name: name, UserIDs: userIDs}
	var resp ChatResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceCreateGroup,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceCreateGroup, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceCreateGroup, remoteError(resp.Error))
	}
	return &resp.Chat, nil
}

// RenameChat renames a chat.
func (a *ChatAdapter) RenameChat(ctx context.Context, callerID, chatID, name string) (*domain.ChatView, error) {
	req := RenameChatRequest{UserID: callerID, ChatID: chatID, Name: name}
	var resp ChatResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRenameChat,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceRenameChat, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceRenameChat, remoteError(resp.Error))
	}
	return &resp.Chat, nil
}

// AddMember adds a member to a group chat.
func (a *ChatAdapter) AddMember(ctx context.Context, callerID, chatID, memberID string) (*domain.ChatView, error) {
	req := MemberRequest{UserID: callerID, ChatID: chatID, MemberID: memberID}
	var resp ChatResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceAddMember,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceAddMember, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceAddMember, remoteError(resp.Error))
	}
	return &resp.Chat, nil
}

// RemoveMember removes a member from a group chat.
func (a *ChatAdapter) RemoveMember(ctx context.Context, callerID, chatID, memberID string) (*domain.ChatView, error) {
	req := MemberRequest{UserID: callerID, ChatID: chatID, MemberID: memberID}
	var resp ChatResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRemoveMember,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceRemoveMember, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceRemoveMember, remoteError(resp.Error))
	}
	return &resp.Chat, nil
}

// SendMessage stores a message sent by the caller.
func (a *ChatAdapter) SendMessage(ctx context.Context, callerID, chatID, content string) (*domain.MessageView, error) {
	req := SendMessageRequest{UserID: callerID, ChatID: chatID, Content: content}
	var resp MessageResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceSendMessage,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceSendMessage, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceSendMessage, remoteError(resp.Error))
	}
	return &resp.Message, nil
}

// ListMessages returns the messages of a chat, oldest first.
func (a *ChatAdapter) ListMessages(ctx context.Context, callerID, chatID string) ([]domain.MessageView, error) {
	req := ListMessagesRequest{UserID: callerID, ChatID: chatID}
	var resp MessageListResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListMessages,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("%s request failed: %w", ServiceListMessages, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%s request failed: %w", ServiceListMessages, remoteError(resp.Error))
	}
	return resp.Messages, nil
}
