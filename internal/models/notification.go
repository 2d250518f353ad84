package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType identifies what a notification is about
type NotificationType string

const (
	NotificationLike          NotificationType = "like"
	NotificationComment       NotificationType = "comment"
	NotificationReply         NotificationType = "reply"
	NotificationMention       NotificationType = "mention"
	NotificationFollow        NotificationType = "follow"
	NotificationFollowRequest NotificationType = "follow_request"
)

// Notification is a stored in-app notification. Read marks explicit
// acknowledgement (opening the notification); Seen clears the badge count.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"` // recipient
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	ActorID string `gorm:"not null;index" json:"actor_id"`
	Actor   User   `gorm:"foreignKey:ActorID" json:"actor,omitempty"`

	Type NotificationType `gorm:"type:varchar(24);not null" json:"type"`

	// Optional references to the content the notification is about
	PostID    *string `gorm:"type:uuid;index" json:"post_id,omitempty"`
	CommentID *string `gorm:"type:uuid;index" json:"comment_id,omitempty"`

	Read bool `gorm:"default:false;index" json:"read"`
	Seen bool `gorm:"default:false;index" json:"seen"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = generateUUID()
	}
	return nil
}
