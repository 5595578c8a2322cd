package user

import (
	"time"
)

// DefaultPic is assigned to users who register without a profile picture.
const DefaultPic = "https://icon-library.com/images/anonymous-avatar-icon/anonymous-avatar-icon-25.jpg"

// User represents a user entity in the system.
type User struct {
	ID           string `gorm:"primaryKey;type:text"`
	Name         string `gorm:"not null;type:text;index"`
	Email        string `gorm:"uniqueIndex;not null;type:text"`
	Pic          string `gorm:"not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// Profile returns the display-ready view of the user without credentials.
func (u *User) Profile() Profile {
	return Profile{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Pic:   u.Pic,
	}
}

// Profile is a user record safe to hand to other users.
type Profile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Pic   string `json:"pic"`
}

// TokenPair represents access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims represents validated JWT claims.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}
