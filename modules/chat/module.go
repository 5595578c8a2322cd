package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Config holds the chat module settings.
type Config struct {
	DBPath  string
	DBDebug bool
}

// ChatModule provides the conversation store.
type ChatModule struct {
	config   Config
	db       *gorm.DB
	authPort auth.AuthPort
	service  *ChatService
}

var _ mono.Module = (*ChatModule)(nil)
var _ mono.ServiceProviderModule = (*ChatModule)(nil)
var _ mono.DependentModule = (*ChatModule)(nil)
var _ mono.HealthCheckableModule = (*ChatModule)(nil)

// NewModule creates a new ChatModule.
func NewModule(config Config) *ChatModule {
	if config.DBPath == "" {
		config.DBPath = "chat.db"
	}
	return &ChatModule{config: config}
}

func (m *ChatModule) Name() string {
	return "chat"
}

func (m *ChatModule) Dependencies() []string {
	return []string{"auth"}
}

func (m *ChatModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "auth" {
		m.authPort = auth.NewAuthAdapter(container)
	}
}

// Start opens the chat database and builds the service.
func (m *ChatModule) Start(_ context.Context) error {
	if m.authPort == nil {
		return fmt.Errorf("authPort dependency not set")
	}

	logLevel := logger.Silent
	if m.config.DBDebug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(m.config.DBPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.Chat{}, &domain.Member{}, &domain.Message{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.service = NewChatService(NewChatRepository(db), m.authPort)
	log.Printf("[chat] Module started (database: %s, depends on: auth)", m.config.DBPath)
	return nil
}

func (m *ChatModule) Stop(_ context.Context) error {
	if m.db != nil {
		if sqlDB, err := m.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[chat] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *ChatModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get database connection: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"database": m.config.DBPath},
	}
}

func (m *ChatModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceAccessChat, json.Unmarshal, json.Marshal, m.handleAccessChat,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAccessChat, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListChats, json.Unmarshal, json.Marshal, m.handleListChats,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListChats, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateGroup, json.Unmarshal, json.Marshal, m.handleCreateGroup,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateGroup, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRenameChat, json.Unmarshal, json.Marshal, m.handleRenameChat,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRenameChat, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceAddMember, json.Unmarshal, json.Marshal, m.handleAddMember,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAddMember, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRemoveMember, json.Unmarshal, json.Marshal, m.handleRemoveMember,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRemoveMember, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSendMessage, json.Unmarshal, json.Marshal, m.handleSendMessage,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSendMessage, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListMessages, json.Unmarshal, json.Marshal, m.handleListMessages,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListMessages, err)
	}

	log.Printf("[chat] Registered services: access-chat, list-chats, create-group, rename-chat, add-member, remove-member, send-message, list-messages")
	return nil
}

func (m *ChatModule) handleAccessChat(ctx context.Context, req AccessChatRequest, _ *mono.Msg) (ChatResponse, error) {
	view, err := m.service.AccessChat(ctx, req.UserID, req.TargetUserID)
	if err != nil {
		return ChatResponse{Error: replyError(ServiceAccessChat, err)}, nil
	}
	return ChatResponse{Chat: *view}, nil
}

func (m *ChatModule) handleListChats(ctx context.Context, req ListChatsRequest, _ *mono.Msg) (ChatListResponse, error) {
	views, err := m.service.ListChats(ctx, req.UserID)
	if err != nil {
		return ChatListResponse{Error: replyError(ServiceListChats, err)}, nil
	}
	return ChatListResponse{Chats: views}, nil
}

func (m *ChatModule) handleCreateGroup(ctx context.Context, req CreateGroupRequest, _ *mono.Msg) (ChatResponse, error) {
	view, err := m.service.CreateGroup(ctx, req.UserID, req.Name, req.UserIDs)
	if err != nil {
		return ChatResponse{Error: replyError(ServiceCreateGroup, err)}, nil
	}
	log.Printf("[chat] Group chat %s created by %s", view.ID, req.UserID)
	return ChatResponse{Chat: *view}, nil
}

func (m *ChatModule) handleRenameChat(ctx context.Context, req RenameChatRequest, _ *mono.Msg) (ChatResponse, error) {
	view, err := m.service.RenameChat(ctx, req.UserID, req.ChatID, req.Name)
	if err != nil {
		return ChatResponse{Error: replyError(ServiceRenameChat, err)}, nil
	}
	return ChatResponse{Chat: *view}, nil
}

func (m *ChatModule) handleAddMember(ctx context.Context, req MemberRequest, _ *mono.Msg) (ChatResponse, error) {
	view, err := m.service.AddMember(ctx, req.UserID, req.ChatID, req.MemberID)
	if err != nil {
		return ChatResponse{Error: replyError(ServiceAddMember, err)}, nil
	}
	return ChatResponse{Chat: *view}, nil
}

func (m *ChatModule) handleRemoveMember(ctx context.Context, req MemberRequest, _ *mono.Msg) (ChatResponse, error) {
	view, err := m.service.RemoveMember(ctx, req.UserID, req.ChatID, req.MemberID)
	if err != nil {
		return ChatResponse{Error: replyError(ServiceRemoveMember, err)}, nil
	}
	return ChatResponse{Chat: *view}, nil
}

func (m *ChatModule) handleSendMessage(ctx context.Context, req SendMessageRequest, _ *mono.Msg) (MessageResponse, error) {
	view, err := m.service.SendMessage(ctx, req.UserID, req.ChatID, req.Content)
	if err != nil {
		return MessageResponse{Error: replyError(ServiceSendMessage, err)}, nil
	}
	return MessageResponse{Message: *view}, nil
}

func (m *ChatModule) handleListMessages(ctx context.Context, req ListMessagesRequest, _ *mono.Msg) (MessageListResponse, error) {
	views, err := m.service.ListMessages(ctx, req.UserID, req.ChatID)
	if err != nil {
		return MessageListResponse{Error: replyError(ServiceListMessages, err)}, nil
	}
	return MessageListResponse{Messages: views}, nil
}
