package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/logger"
	"github.com/buzzboard/backend/internal/models"
	"github.com/buzzboard/backend/internal/util"
)

// LikePost likes a post. Liking an already-liked post is a no-op.
// POST /api/v1/posts/:id/like
func (h *Handlers) LikePost(c *gin.Context) {
	postID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.Preload("User").First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if !canViewPosts(user.ID, &post.User) {
		util.RespondNotFound(c, "post")
		return
	}

	// Idempotent: an existing like short-circuits
	var existing models.Like
	err := database.DB.Where("user_id = ? AND post_id = ?", user.ID, postID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"status": "liked", "like_count": post.LikeCount})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, "Failed to like post")
		return
	}

	like := models.Like{UserID: user.ID, PostID: postID}
	if err := database.DB.Create(&like).Error; err != nil {
		util.RespondInternalError(c, "Failed to like post")
		return
	}

	if err := database.DB.Model(&post).UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment like count for post "+postID, err)
	}

	if err := createNotification(post.UserID, user.ID, models.NotificationLike, &postID, nil); err != nil {
		logger.WarnWithFields("Failed to notify about like on post "+postID, err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "liked", "like_count": post.LikeCount + 1})
}

// UnlikePost removes a like. Unliking a post that was never liked is a no-op.
// DELETE /api/v1/posts/:id/like
func (h *Handlers) UnlikePost(c *gin.Context) {
	postID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	res := database.DB.Where("user_id = ? AND post_id = ?", user.ID, postID).Delete(&models.Like{})
	if res.Error != nil {
		util.RespondInternalError(c, "Failed to unlike post")
		return
	}

	likeCount := post.LikeCount
	if res.RowsAffected > 0 {
		if err := database.DB.Model(&post).UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement like count for post "+postID, err)
		}
		likeCount--
	}

	c.JSON(http.StatusOK, gin.H{"status": "unliked", "like_count": likeCount})
}

// LikeComment likes a comment. Idempotent like LikePost.
// POST /api/v1/comments/:id/like
func (h *Handlers) LikeComment(c *gin.Context) {
	commentID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	var existing models.CommentLike
	err := database.DB.Where("user_id = ? AND comment_id = ?", user.ID, commentID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"status": "liked", "like_count": comment.LikeCount})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, "Failed to like comment")
		return
	}

	like := models.CommentLike{UserID: user.ID, CommentID: commentID}
	if err := database.DB.Create(&like).Error; err != nil {
		util.RespondInternalError(c, "Failed to like comment")
		return
	}

	if err := database.DB.Model(&comment).UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment like count for comment "+commentID, err)
	}

	if err := createNotification(comment.UserID, user.ID, models.NotificationLike, &comment.PostID, &commentID); err != nil {
		logger.WarnWithFields("Failed to notify about like on comment "+commentID, err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "liked", "like_count": comment.LikeCount + 1})
}

// UnlikeComment removes a comment like
// DELETE /api/v1/comments/:id/like
func (h *Handlers) UnlikeComment(c *gin.Context) {
	commentID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}

	res := database.DB.Where("user_id = ? AND comment_id = ?", user.ID, commentID).Delete(&models.CommentLike{})
	if res.Error != nil {
		util.RespondInternalError(c, "Failed to unlike comment")
		return
	}

	likeCount := comment.LikeCount
	if res.RowsAffected > 0 {
		if err := database.DB.Model(&comment).UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error; err != nil {
			logger.WarnWithFields("Failed to decrement like count for comment "+commentID, err)
		}
		likeCount--
	}

	c.JSON(http.StatusOK, gin.H{"status": "unliked", "like_count": likeCount})
}
