package models

import (
	"time"

	"gorm.io/gorm"
)

// FollowStatus represents the state of a follow edge
type FollowStatus string

const (
	// FollowAccepted is an active follow
	FollowAccepted FollowStatus = "accepted"
	// FollowPending is a follow request awaiting approval (private accounts)
	FollowPending FollowStatus = "pending"
)

// Follow represents a follower -> followee edge. Follows of private
// accounts start as pending and must be approved by the followee.
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string `gorm:"not null;index" json:"follower_id"`
	Follower   User   `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	FolloweeID string `gorm:"not null;index" json:"followee_id"`
	Followee   User   `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`

	Status FollowStatus `gorm:"type:varchar(16);not null;default:accepted" json:"status"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

// Like represents a user liking a post
type Like struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

// CommentLike represents a user liking a comment
type CommentLike struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string  `gorm:"not null;index" json:"user_id"`
	User      User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CommentID string  `gorm:"not null;index" json:"comment_id"`
	Comment   Comment `gorm:"foreignKey:CommentID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

func (cl *CommentLike) BeforeCreate(tx *gorm.DB) error {
	if cl.ID == "" {
		cl.ID = generateUUID()
	}
	return nil
}
