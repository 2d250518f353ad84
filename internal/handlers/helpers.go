package handlers

import (
	"errors"

	"gorm.io/gorm"

	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/logger"
	"github.com/buzzboard/backend/internal/middleware"
	"github.com/buzzboard/backend/internal/models"
	"github.com/buzzboard/backend/internal/util"
)

// createNotification stores an in-app notification. Self-notifications are
// silently skipped so liking your own post never produces a row.
func createNotification(recipientID, actorID string, ntype models.NotificationType, postID, commentID *string) error {
	if recipientID == actorID {
		return nil
	}

	notification := models.Notification{
		UserID:    recipientID,
		ActorID:   actorID,
		Type:      ntype,
		PostID:    postID,
		CommentID: commentID,
	}
	if err := database.DB.Create(&notification).Error; err != nil {
		return err
	}

	middleware.RecordNotificationCreated(string(ntype))
	return nil
}

// canMention reports whether author may @mention target, per the target's
// mention policy and block state.
func canMention(author, target *models.User) bool {
	if author.ID == target.ID {
		return false
	}

	// Blocks cut mentions in both directions
	var blockCount int64
	database.DB.Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			target.ID, author.ID, author.ID, target.ID).
		Count(&blockCount)
	if blockCount > 0 {
		return false
	}

	switch target.MentionsFrom {
	case models.MentionsFromNobody:
		return false
	case models.MentionsFromFollowers:
		var followCount int64
		database.DB.Model(&models.Follow{}).
			Where("follower_id = ? AND followee_id = ? AND status = ?",
				author.ID, target.ID, models.FollowAccepted).
			Count(&followCount)
		return followCount > 0
	default:
		return true
	}
}

// processMentions extracts @mentions from content, records them, and
// notifies the mentioned users. Unknown usernames are ignored.
func processMentions(content string, author *models.User, postID, commentID *string) {
	for _, username := range util.ExtractMentions(content) {
		var target models.User
		err := database.DB.Where("LOWER(username) = ?", username).First(&target).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				logger.WarnWithFields("Failed to look up mentioned user "+username, err)
			}
			continue
		}

		if !canMention(author, &target) {
			continue
		}

		mention := models.Mention{
			PostID:          postID,
			CommentID:       commentID,
			MentionedUserID: target.ID,
			AuthorID:        author.ID,
		}
		if err := database.DB.Create(&mention).Error; err != nil {
			logger.WarnWithFields("Failed to record mention of "+username, err)
			continue
		}

		if err := createNotification(target.ID, author.ID, models.NotificationMention, postID, commentID); err != nil {
			logger.WarnWithFields("Failed to notify mentioned user "+username, err)
			continue
		}
		database.DB.Model(&mention).UpdateColumn("notification_sent", true)
	}
}

// upsertHashtags extracts #tags from content, creates missing hashtag rows,
// links them to the post, and bumps usage counters.
func upsertHashtags(content, postID string) {
	for _, name := range util.ExtractHashtags(content) {
		var tag models.Hashtag
		err := database.DB.Where("name = ?", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Hashtag{Name: name}
			err = database.DB.Create(&tag).Error
		}
		if err != nil {
			logger.WarnWithFields("Failed to upsert hashtag "+name, err)
			continue
		}

		link := models.PostHashtag{PostID: postID, HashtagID: tag.ID}
		if err := database.DB.Create(&link).Error; err != nil {
			logger.WarnWithFields("Failed to link hashtag "+name, err)
			continue
		}

		database.DB.Model(&tag).Updates(map[string]interface{}{
			"post_count":   gorm.Expr("post_count + 1"),
			"last_used_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})

		bumpTrendingHashtag(name)
	}
}

// isBlockedEitherWay reports whether either user blocks the other.
func isBlockedEitherWay(userA, userB string) bool {
	var count int64
	database.DB.Model(&models.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)",
			userA, userB, userB, userA).
		Count(&count)
	return count > 0
}

// isFollowing reports whether follower has an accepted follow of followee.
func isFollowing(followerID, followeeID string) bool {
	var count int64
	database.DB.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ? AND status = ?",
			followerID, followeeID, models.FollowAccepted).
		Count(&count)
	return count > 0
}

// canViewPosts reports whether viewer may see author's posts. Private
// authors are visible to themselves and accepted followers only.
func canViewPosts(viewerID string, author *models.User) bool {
	if viewerID == author.ID {
		return true
	}
	if viewerID != "" && isBlockedEitherWay(viewerID, author.ID) {
		return false
	}
	if !author.IsPrivate {
		return true
	}
	return viewerID != "" && isFollowing(viewerID, author.ID)
}
