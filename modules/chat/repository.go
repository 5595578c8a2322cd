package chat

import (
	"context"
	"errors"
	"time"

	domain "github.com/example/realtime-chat/domain/chat"
	"gorm.io/gorm"
)

const (
	memberOf = "EXISTS (SELECT 1 FROM chat_members m WHERE m.chat_id = chats.id AND m.user_id = ?)"
	onlyPair = "NOT EXISTS (SELECT 1 FROM chat_members m WHERE m.chat_id = chats.id AND m.user_id NOT IN (?, ?))"
)

// ChatRepository handles chat, membership and message persistence using GORM.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// CreateChat inserts a chat and its membership rows in one transaction.
// Members are stored in the given order.
func (r *ChatRepository) CreateChat(ctx context.Context, chat *domain.Chat, memberIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return err
		}
		members := make([]domain.Member, 0, len(memberIDs))
		for _, id := range memberIDs {
			members = append(members, domain.Member{ChatID: chat.ID, UserID: id})
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Create(&members).Error
	})
}

// FindByID finds a chat by ID.
func (r *ChatRepository) FindByID(ctx context.Context, id string) (*domain.Chat, error) {
	var chat domain.Chat
	if err := r.db.WithContext(ctx).First(&chat, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return &chat, nil
}

// FindOneToOne returns the oldest non-group chat whose members are exactly
// a and b, or nil when none exists.
func (r *ChatRepository) FindOneToOne(ctx context.Context, a, b string) (*domain.Chat, error) {
	var chat domain.Chat
	err := r.db.WithContext(ctx).
		Where("is_group = ?", false).
		Where(memberOf, a).
		Where(memberOf, b).
		Where(onlyPair, a, b).
		Order("created_at ASC").
		Take(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chat, nil
}

// ListForUser returns the chats userID belongs to, most recently updated first.
func (r *ChatRepository) ListForUser(ctx context.Context, userID string) ([]domain.Chat, error) {
	var chats []domain.Chat
	if err := r.db.WithContext(ctx).
		Where(memberOf, userID).
		Order("updated_at DESC").
		Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

// MemberIDs returns member user IDs per chat in insertion order.
// Duplicate memberships are kept.
func (r *ChatRepository) MemberIDs(ctx context.Context, chatIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(chatIDs))
	if len(chatIDs) == 0 {
		return result, nil
	}
	var members []domain.Member
	if err := r.db.WithContext(ctx).
		Where("chat_id IN ?", chatIDs).
		Order("id ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	for _, m := range members {
		result[m.ChatID] = append(result[m.ChatID], m.UserID)
	}
	return result, nil
}

// IsMember reports whether userID belongs to chatID.
func (r *ChatRepository) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rename sets a new chat name.
func (r *ChatRepository) Rename(ctx context.Context, chatID, name string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chatID).
		Updates(map[string]any{"name": name, "updated_at": time.Now()}).Error
}

// AddMember appends a membership row.
func (r *ChatRepository) AddMember(ctx context.Context, chatID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&domain.Member{ChatID: chatID, UserID: userID}).Error; err != nil {
			return err
		}
		return touch(tx, chatID, time.Now())
	})
}

// RemoveMember deletes every membership row of userID in chatID.
func (r *ChatRepository) RemoveMember(ctx context.Context, chatID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ? AND user_id = ?", chatID, userID).
			Delete(&domain.Member{}).Error; err != nil {
			return err
		}
		return touch(tx, chatID, time.Now())
	})
}

// CreateMessage inserts a message and makes it the chat's latest message.
func (r *ChatRepository) CreateMessage(ctx context.Context, msg *domain.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Chat{}).
			Where("id = ?", msg.ChatID).
			Updates(map[string]any{"latest_message_id": msg.ID, "updated_at": msg.CreatedAt}).Error
	})
}

// ListMessages returns the messages of a chat, oldest first.
func (r *ChatRepository) ListMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	var messages []domain.Message
	if err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Order("rowid ASC").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

// MessagesByIDs returns messages keyed by ID.
func (r *ChatRepository) MessagesByIDs(ctx context.Context, ids []string) (map[string]domain.Message, error) {
	result := make(map[string]domain.Message, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var messages []domain.Message
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&messages).Error; err != nil {
		return nil, err
	}
	for _, m := range messages {
		result[m.ID] = m
	}
	return result, nil
}

func touch(tx *gorm.DB, chatID string, at time.Time) error {
	return tx.Model(&domain.Chat{}).Where("id = ?", chatID).Update("updated_at", at).Error
}
