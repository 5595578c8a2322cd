package api

import (
	"context"
	"errors"

	chatdomain "github.com/example/realtime-chat/domain/chat"
	domain "github.com/example/realtime-chat/domain/user"
	"github.com/example/realtime-chat/modules/auth"
)

var errNotImplemented = errors.New("not implemented")

// mockAuthPort implements auth.AuthPort for testing
type mockAuthPort struct {
	registerFunc      func(ctx context.Context, req auth.RegisterRequest) (*auth.SessionResponse, error)
	loginFunc         func(ctx context.Context, email, password string) (*auth.SessionResponse, error)
	refreshFunc       func(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	validateTokenFunc func(ctx context.Context, token string) (*domain.Claims, error)
	getUserFunc       func(ctx context.Context, userID string) (*domain.Profile, error)
	getUsersFunc      func(ctx context.Context, userIDs []string) ([]domain.Profile, error)
	searchUsersFunc   func(ctx context.Context, callerID, query string, limit int) ([]domain.Profile, error)
}

var _ auth.AuthPort = (*mockAuthPort)(nil)

func (m *mockAuthPort) Register(ctx context.Context, req auth.RegisterRequest) (*auth.SessionResponse, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) Login(ctx context.Context, email, password string) (*auth.SessionResponse, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, email, password)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, refreshToken)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, token)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) GetUser(ctx context.Context, userID string) (*domain.Profile, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) GetUsers(ctx context.Context, userIDs []string) ([]domain.Profile, error) {
	if m.getUsersFunc != nil {
		return m.getUsersFunc(ctx, userIDs)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) SearchUsers(ctx context.Context, callerID, query string, limit int) ([]domain.Profile, error) {
	if m.searchUsersFunc != nil {
		return m.searchUsersFunc(ctx, callerID, query, limit)
	}
	return nil, errNotImplemented
}

// mockChatPort implements chat.ChatPort for testing
type mockChatPort struct {
	accessChatFunc   func(ctx context.Context, callerID, targetUserID string) (*chatdomain.ChatView, error)
	listChatsFunc    func(ctx context.Context, callerID string) ([]chatdomain.ChatView, error)
	createGroupFunc  func(ctx context.Context, callerID, name string, userIDs []string) (*chatdomain.ChatView, error)
	renameChatFunc   func(ctx context.Context, callerID, chatID, name string) (*chatdomain.ChatView, error)
	addMemberFunc    func(ctx context.Context, callerID, chatID, memberID string) (*chatdomain.ChatView, error)
	removeMemberFunc func(ctx context.Context, callerID, chatID, memberID string) (*chatdomain.ChatView, error)
	sendMessageFunc  func(ctx context.Context, callerID, chatID, content string) (*chatdomain.MessageView, error)
	listMessagesFunc func(ctx context.Context, callerID, chatID string) ([]chatdomain.MessageView, error)
}

func (m *mockChatPort) AccessChat(ctx context.Context, callerID, targetUserID string) (*chatdomain.ChatView, error) {
	if m.accessChatFunc != nil {
		return m.accessChatFunc(ctx, callerID, targetUserID)
	}
	return nil, errNotImplemented
}

func (m *mockChatPort) ListChats(ctx context.Context, callerID string) ([]chatdomain.ChatView, error) {
	if m.listChatsFunc != nil {
		return m.listChatsFunc(ctx, callerID)
	}
	return nil, errNotImplemented
}

func (m *mockChatPort) CreateGroup(ctx context.Context, callerID, name string, userIDs []string) (*chatdomain.ChatView, error) {
	if m.createGroupFunc != nil {
		return m.createGroupFunc(ctx, callerID, name, userIDs)
	}
	return nil, errNotImplemented
}

func (m *mockChatPort) RenameChat(ctx context.Context, callerID, chatID, name string) (*chatdomain.ChatView, error) {
	if m.renameChatFunc != nil {
		return m.renameChatFunc(ctx, callerID, chatID, name)
	}
	return nil, errNotImplemented
}

func (m *mockChatPort) AddMember(ctx context.Context, callerID, chatID, memberID string) (*chatdomain.ChatView, error) {
	if m.addMemberFunc != nil {
		return m.addMemberFunc(ctx, callerID, chatID, memberID)
	}
	return nil, errNotImplemented
}

func (m *mockChatPort) RemoveMember(ctx context.Context, callerID, chatID, memberID string) (*chatdomain.ChatView, error) {
	if m.removeMemberFunc != nil {
		return m.removeMemberFunc(ctx, callerID, chatID, memberID)
	}
	return nil, errNotImplemented
}

func (m *mockChatPort) SendMessage(ctx context.Context, callerID, chatID, content string) (*chatdomain.MessageView, error) {
	if m.sendMessageFunc != nil {
		return m.sendMessageFunc(ctx, callerID, chatID, content)
	}
	return nil, errNotImplemented
}

func (m *mockChatPort) ListMessages(ctx context.Context, callerID, chatID string) ([]chatdomain.MessageView, error) {
	if m.listMessagesFunc != nil {
		return m.listMessagesFunc(ctx, callerID, chatID)
	}
	return nil, errNotImplemented
}

// validTokenAuth accepts "token-<userID>" as a bearer token.
func validTokenAuth() *mockAuthPort {
	return &mockAuthPort{
		validateTokenFunc: func(_ context.Context, token string) (*domain.Claims, error) {
			const prefix = "token-"
			if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
				return nil, errors.New("token validation failed: invalid token")
			}
			id := token[len(prefix):]
			return &domain.Claims{UserID: id, Email: id + "@example.com", Name: id}, nil
		},
	}
}
