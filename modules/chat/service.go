package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/domain/user"
	"github.com/google/uuid"
)

// UserDirectory resolves user IDs to public profiles. Unknown IDs are omitted.
type UserDirectory interface {
	GetUsers(ctx context.Context, userIDs []string) ([]user.Profile, error)
}

// ChatService provides conversation store operations.
type ChatService struct {
	repo  *ChatRepository
	users UserDirectory

	// serializes find-or-create of 1:1 chats
	oneToOneMu sync.Mutex
}

// NewChatService creates a new ChatService.
func NewChatService(repo *ChatRepository, users UserDirectory) *ChatService {
	return &ChatService{
		repo:  repo,
		users: users,
	}
}

// AccessChat returns the 1:1 chat between callerID and targetID, creating it
// when it does not exist yet.
func (s *ChatService) AccessChat(ctx context.Context, callerID, targetID string) (*domain.ChatView, error) {
	if targetID == "" {
		return nil, ErrMissingFields
	}
	if targetID == callerID {
		return nil, ErrSelfChat
	}

	s.oneToOneMu.Lock()
	defer s.oneToOneMu.Unlock()

	existing, err := s.repo.FindOneToOne(ctx, callerID, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to find chat: %w", err)
	}
	if existing != nil {
		return s.resolveOne(ctx, existing)
	}

	profiles, err := s.users.GetUsers(ctx, []string{targetID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrUserNotFound
	}

	now := time.Now()
	chat := &domain.Chat{
		ID:        uuid.New().String(),
		Name:      domain.OneToOneChatName,
		IsGroup:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateChat(ctx, chat, []string{callerID, targetID}); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return s.resolveOne(ctx, chat)
}

// ListChats returns every chat userID belongs to, most recently updated first.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]domain.ChatView, error) {
	chats, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return s.resolve(ctx, chats)
}

// CreateGroup creates a group chat with callerID as admin. At least three
// invitees besides the creator are required.
func (s *ChatService) CreateGroup(ctx context.Context, callerID, name string, userIDs []string) (*domain.ChatView, error) {
	if strings.TrimSpace(name) == "" || len(userIDs) == 0 {
		return nil, ErrMissingFields
	}
	if err := ValidateChatName(name); err != nil {
		return nil, err
	}

	invitees := make([]string, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == "" || id == callerID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		invitees = append(invitees, id)
	}
	if len(invitees) < MinGroupInvitees {
		return nil, ErrGroupTooSmall
	}

	profiles, err := s.users.GetUsers(ctx, invitees)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}
	if len(profiles) != len(invitees) {
		return nil, ErrUserNotFound
	}

	now := time.Now()
	chat := &domain.Chat{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		IsGroup:   true,
		AdminID:   callerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateChat(ctx, chat, append(invitees, callerID)); err != nil {
		return nil, fmt.Errorf("failed to create group chat: %w", err)
	}
	return s.resolveOne(ctx, chat)
}

// RenameChat renames a chat the caller belongs to.
func (s *ChatService) RenameChat(ctx context.Context, callerID, chatID, name string) (*domain.ChatView, error) {
	if chatID == "" {
		return nil, ErrMissingFields
	}
	if err := ValidateChatName(name); err != nil {
		return nil, err
	}
	if _, err := s.memberChat(ctx, chatID, callerID); err != nil {
		return nil, err
	}
	if err := s.repo.Rename(ctx, chatID, strings.TrimSpace(name)); err != nil {
		return nil, fmt.Errorf("failed to rename chat: %w", err)
	}
	return s.reload(ctx, chatID)
}

// AddMember adds memberID to a group chat. Only the admin may add members.
func (s *ChatService) AddMember(ctx context.Context, callerID, chatID, memberID string) (*domain.ChatView, error) {
	if chatID == "" || memberID == "" {
		return nil, ErrMissingFields
	}
	chat, err := s.groupChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.AdminID != callerID {
		return nil, ErrNotAdmin
	}

	profiles, err := s.users.GetUsers(ctx, []string{memberID})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrUserNotFound
	}

	if err := s.repo.AddMember(ctx, chatID, memberID); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	return s.reload(ctx, chatID)
}

// RemoveMember removes memberID from a group chat. The admin may remove
// anyone; any member may remove themselves.
func (s *ChatService) RemoveMember(ctx context.Context, callerID, chatID, memberID string) (*domain.ChatView, error) {
	if chatID == "" || memberID == "" {
		return nil, ErrMissingFields
	}
	chat, err := s.groupChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.AdminID != callerID && memberID != callerID {
		return nil, ErrRemoveNotAllowed
	}

	if err := s.repo.RemoveMember(ctx, chatID, memberID); err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}
	return s.reload(ctx, chatID)
}

// SendMessage stores a message from callerID and makes it the chat's latest.
// The returned view carries the chat with its members resolved.
func (s *ChatService) SendMessage(ctx context.Context, callerID, chatID, content string) (*domain.MessageView, error) {
	if chatID == "" {
		return nil, ErrMissingFields
	}
	if err := ValidateMessage(content); err != nil {
		return nil, err
	}
	if _, err := s.memberChat(ctx, chatID, callerID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		SenderID:  callerID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	chatView, err := s.reload(ctx, chatID)
	if err != nil {
		return nil, err
	}
	view := chatView.LatestMessage
	if view == nil || view.ID != msg.ID {
		profiles, err := s.profiles(ctx, []string{callerID})
		if err != nil {
			return nil, err
		}
		view = messageView(*msg, profiles)
	}
	chatView.LatestMessage = nil
	view.Chat = chatView
	return view, nil
}

// ListMessages returns the messages of a chat the caller belongs to, oldest first.
func (s *ChatService) ListMessages(ctx context.Context, callerID, chatID string) ([]domain.MessageView, error) {
	if chatID == "" {
		return nil, ErrMissingFields
	}
	if _, err := s.memberChat(ctx, chatID, callerID); err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	senderIDs := make([]string, 0, len(messages))
	for _, m := range messages {
		senderIDs = append(senderIDs, m.SenderID)
	}
	profiles, err := s.profiles(ctx, senderIDs)
	if err != nil {
		return nil, err
	}

	views := make([]domain.MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, *messageView(m, profiles))
	}
	return views, nil
}

func (s *ChatService) memberChat(ctx context.Context, chatID, userID string) (*domain.Chat, error) {
	chat, err := s.repo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.IsMember(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !ok {
		return nil, ErrNotMember
	}
	return chat, nil
}

func (s *ChatService) groupChat(ctx context.Context, chatID string) (*domain.Chat, error) {
	chat, err := s.repo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, ErrNotGroupChat
	}
	return chat, nil
}

func (s *ChatService) reload(ctx context.Context, chatID string) (*domain.ChatView, error) {
	chat, err := s.repo.FindByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return s.resolveOne(ctx, chat)
}

func (s *ChatService) resolveOne(ctx context.Context, chat *domain.Chat) (*domain.ChatView, error) {
	views, err := s.resolve(ctx, []domain.Chat{*chat})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// resolve expands member, admin and latest message references with one
// directory lookup for all referenced users.
func (s *ChatService) resolve(ctx context.Context, chats []domain.Chat) ([]domain.ChatView, error) {
	views := make([]domain.ChatView, 0, len(chats))
	if len(chats) == 0 {
		return views, nil
	}

	chatIDs := make([]string, 0, len(chats))
	latestIDs := make([]string, 0, len(chats))
	for _, c := range chats {
		chatIDs = append(chatIDs, c.ID)
		if c.LatestMessageID != nil {
			latestIDs = append(latestIDs, *c.LatestMessageID)
		}
	}

	members, err := s.repo.MemberIDs(ctx, chatIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	latest, err := s.repo.MessagesByIDs(ctx, latestIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest messages: %w", err)
	}

	var userIDs []string
	for _, c := range chats {
		userIDs = append(userIDs, members[c.ID]...)
		if c.AdminID != "" {
			userIDs = append(userIDs, c.AdminID)
		}
	}
	for _, m := range latest {
		userIDs = append(userIDs, m.SenderID)
	}
	profiles, err := s.profiles(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for _, c := range chats {
		view := domain.ChatView{
			ID:        c.ID,
			Name:      c.Name,
			IsGroup:   c.IsGroup,
			Users:     make([]user.Profile, 0, len(members[c.ID])),
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		}
		for _, id := range members[c.ID] {
			if p, ok := profiles[id]; ok {
				view.Users = append(view.Users, p)
			}
		}
		if p, ok := profiles[c.AdminID]; ok && c.AdminID != "" {
			admin := p
			view.GroupAdmin = &admin
		}
		if c.LatestMessageID != nil {
			if m, ok := latest[*c.LatestMessageID]; ok {
				view.LatestMessage = messageView(m, profiles)
			}
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *ChatService) profiles(ctx context.Context, userIDs []string) (map[string]user.Profile, error) {
	result := make(map[string]user.Profile)
	if len(userIDs) == 0 {
		return result, nil
	}
	found, err := s.users.GetUsers(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}
	for _, p := range found {
		result[p.ID] = p
	}
	return result, nil
}

// messageView resolves the sender. A sender that no longer resolves keeps
// its ID with an empty profile.
func messageView(m domain.Message, profiles map[string]user.Profile) *domain.MessageView {
	sender, ok := profiles[m.SenderID]
	if !ok {
		sender = user.Profile{ID: m.SenderID}
	}
	return &domain.MessageView{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Sender:    sender,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
