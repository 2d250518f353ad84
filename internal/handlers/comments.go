package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/logger"
	"github.com/buzzboard/backend/internal/models"
	"github.com/buzzboard/backend/internal/util"
)

// CreateComment creates a new comment on a post
// POST /api/v1/posts/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	postID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content  string  `json:"content" binding:"required,min=1,max=2000"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	// Verify the post exists and is visible to the commenter
	var post models.Post
	if err := database.DB.Preload("User").First(&post, "id = ?", postID).Error; util.HandleDBError(c, err, "post") {
		return
	}
	if !canViewPosts(user.ID, &post.User) {
		util.RespondNotFound(c, "post")
		return
	}

	// If replying to a comment, verify the parent exists and belongs to the same post
	isReply := false
	if req.ParentID != nil && *req.ParentID != "" {
		var parentComment models.Comment
		if err := database.DB.First(&parentComment, "id = ? AND post_id = ?", *req.ParentID, postID).Error; err != nil {
			util.RespondValidationError(c, "parent_id", "Parent comment not found")
			return
		}
		// Only allow 1 level of nesting - if parent has a parent, use the parent's parent
		if parentComment.ParentID != nil {
			req.ParentID = parentComment.ParentID
		}
		isReply = true
	}

	comment := models.Comment{
		PostID:   postID,
		UserID:   user.ID,
		Content:  req.Content,
		ParentID: req.ParentID,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to create comment")
		return
	}

	if err := database.DB.Model(&post).UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment comment count for post "+postID, err)
	}

	processMentions(req.Content, user, nil, &comment.ID)

	// Notify the post owner, or the parent comment's author on replies
	notifType := models.NotificationComment
	recipientID := post.UserID
	if isReply {
		var parent models.Comment
		if err := database.DB.First(&parent, "id = ?", *req.ParentID).Error; err == nil {
			notifType = models.NotificationReply
			recipientID = parent.UserID
		}
	}
	if err := createNotification(recipientID, user.ID, notifType, &postID, &comment.ID); err != nil {
		logger.WarnWithFields("Failed to notify about comment "+comment.ID, err)
	}

	// Load the user for response
	if err := database.DB.Preload("User").First(&comment, "id = ?", comment.ID).Error; err != nil {
		logger.WarnWithFields("Failed to load comment with user for post "+postID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments lists a post's comments, top-level first with replies nested
// GET /api/v1/posts/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	postID := c.Param("id")
	viewerID := c.GetString("user_id")
	limit := util.ClampInt(util.ParseInt(c.DefaultQuery("limit", "50"), 50), 1, 100)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	var post models.Post
	if err := database.DB.Preload("User").First(&post, "id = ?", postID).Error; util.HandleDBError(c, err, "post") {
		return
	}
	if !canViewPosts(viewerID, &post.User) {
		util.RespondNotFound(c, "post")
		return
	}

	var comments []models.Comment
	err := database.DB.Where("post_id = ? AND parent_id IS NULL", postID).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Preload("User")
		}).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load comments")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(comments),
		},
	})
}

// UpdateComment edits a comment the user owns
// PUT /api/v1/comments/:id
func (h *Handlers) UpdateComment(c *gin.Context) {
	commentID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; util.HandleDBError(c, err, "comment") {
		return
	}
	if comment.UserID != user.ID {
		util.RespondForbidden(c, "You can only edit your own comments")
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"content":   req.Content,
		"is_edited": true,
		"edited_at": &now,
	}
	if err := database.DB.Model(&comment).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

// DeleteComment removes a comment the user owns
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	commentID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; util.HandleDBError(c, err, "comment") {
		return
	}
	if comment.UserID != user.ID && !user.IsAdmin {
		util.RespondForbidden(c, "You can only delete your own comments")
		return
	}

	// A comment with replies is tombstoned in place so the thread below it
	// stays readable; a leaf comment is removed outright.
	var replyCount int64
	database.DB.Model(&models.Comment{}).Where("parent_id = ?", commentID).Count(&replyCount)
	if replyCount > 0 {
		err := database.DB.Model(&comment).Updates(map[string]interface{}{
			"is_deleted": true,
			"content":    "",
		}).Error
		if err != nil {
			util.RespondInternalError(c, "Failed to delete comment")
			return
		}
	} else if err := database.DB.Delete(&comment).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete comment")
		return
	}

	if err := database.DB.Model(&models.Post{}).Where("id = ?", comment.PostID).
		UpdateColumn("comment_count", gorm.Expr("comment_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement comment count for post "+comment.PostID, err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "comment_id": commentID})
}
