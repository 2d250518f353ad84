package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MentionPolicy controls who may @mention a user
type MentionPolicy string

const (
	MentionsFromEveryone  MentionPolicy = "everyone"
	MentionsFromFollowers MentionPolicy = "followers"
	MentionsFromNobody    MentionPolicy = "nobody"
)

// User represents a Buzzboard member account
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Email       string `gorm:"uniqueIndex;not null" json:"email"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	Bio         string `gorm:"type:text" json:"bio"`
	Location    string `gorm:"type:text" json:"location"`

	// Native auth fields
	PasswordHash  *string `gorm:"type:text" json:"-"`
	EmailVerified bool    `gorm:"default:false" json:"email_verified"`

	// Profile data
	AvatarURL  string `json:"avatar_url"`
	WebsiteURL string `json:"website_url"`

	// Privacy settings
	IsPrivate    bool          `gorm:"default:false" json:"is_private"`
	MentionsFrom MentionPolicy `gorm:"type:varchar(16);default:everyone" json:"mentions_from"`

	// Moderation
	IsAdmin bool `gorm:"default:false" json:"is_admin"`

	// Social stats (cached counters, bumped on write; follower/following
	// source of truth is the follows table)
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	PostCount      int `gorm:"default:0" json:"post_count"`

	// Activity tracking
	LastActiveAt *time.Time `json:"last_active_at"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	if u.MentionsFrom == "" {
		u.MentionsFrom = MentionsFromEveryone
	}
	return nil
}

// UserBlock represents a user blocking another user
type UserBlock struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	BlockerID string `gorm:"not null;index" json:"blocker_id"`
	Blocker   User   `gorm:"foreignKey:BlockerID" json:"blocker,omitempty"`
	BlockedID string `gorm:"not null;index" json:"blocked_id"`
	Blocked   User   `gorm:"foreignKey:BlockedID" json:"blocked,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Ensure unique constraint: one block per user pair
func (UserBlock) TableName() string {
	return "user_blocks"
}

func (b *UserBlock) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
