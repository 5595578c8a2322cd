package chat

import (
	"time"

	"github.com/example/realtime-chat/domain/user"
)

// OneToOneChatName is the placeholder name given to 1:1 chats.
const OneToOneChatName = "sender"

// Chat is a 1:1 or group conversation.
type Chat struct {
	ID              string  `gorm:"primaryKey;type:text"`
	Name            string  `gorm:"not null;type:text"`
	IsGroup         bool    `gorm:"not null;index"`
	AdminID         string  `gorm:"type:text"`
	LatestMessageID *string `gorm:"type:text"`
	CreatedAt       time.Time
	UpdatedAt       time.Time `gorm:"index"`
}

// TableName returns the table name for the Chat entity.
func (Chat) TableName() string {
	return "chats"
}

// Member is one membership row. The same user may appear more than once.
type Member struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ChatID    string `gorm:"not null;type:text;index"`
	UserID    string `gorm:"not null;type:text;index"`
	CreatedAt time.Time
}

// TableName returns the table name for the Member entity.
func (Member) TableName() string {
	return "chat_members"
}

// Message is an immutable chat message.
type Message struct {
	ID        string    `gorm:"primaryKey;type:text"`
	ChatID    string    `gorm:"not null;type:text;index"`
	SenderID  string    `gorm:"not null;type:text"`
	Content   string    `gorm:"not null;type:text"`
	CreatedAt time.Time `gorm:"index"`
}

// TableName returns the table name for the Message entity.
func (Message) TableName() string {
	return "messages"
}

// ChatView is a chat with members, admin and latest message resolved.
type ChatView struct {
	ID            string         `json:"id"`
	Name          string         `json:"chat_name"`
	IsGroup       bool           `json:"is_group_chat"`
	Users         []user.Profile `json:"users"`
	GroupAdmin    *user.Profile  `json:"group_admin,omitempty"`
	LatestMessage *MessageView   `json:"latest_message,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// MessageView is a message with its sender resolved. Chat is set when the
// message is returned on its own rather than nested in a ChatView.
type MessageView struct {
	ID        string       `json:"id"`
	ChatID    string       `json:"chat_id"`
	Sender    user.Profile `json:"sender"`
	Content   string       `json:"content"`
	Chat      *ChatView    `json:"chat,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
