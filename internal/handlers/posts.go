package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buzzboard/backend/internal/database"
	apierrors "github.com/buzzboard/backend/internal/errors"
	"github.com/buzzboard/backend/internal/logger"
	"github.com/buzzboard/backend/internal/models"
	"github.com/buzzboard/backend/internal/storage"
	"github.com/buzzboard/backend/internal/util"
)

// CreatePost creates a new post
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content  string `json:"content" binding:"required,min=1,max=5000"`
		ImageURL string `json:"image_url,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	post := models.Post{
		UserID:   user.ID,
		Content:  req.Content,
		ImageURL: req.ImageURL,
		IsPublic: !user.IsPrivate,
	}
	if err := database.DB.Create(&post).Error; err != nil {
		util.RespondInternalError(c, "Failed to create post")
		return
	}

	if err := database.DB.Model(user).UpdateColumn("post_count", gorm.Expr("post_count + 1")).Error; err != nil {
		logger.WarnWithFields("Failed to increment post count for user "+user.ID, err)
	}

	upsertHashtags(req.Content, post.ID)
	processMentions(req.Content, user, &post.ID, nil)

	// Load the user for response
	if err := database.DB.Preload("User").First(&post, "id = ?", post.ID).Error; err != nil {
		logger.WarnWithFields("Failed to load post with user "+post.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// GetPost returns a single post by ID
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	postID := c.Param("id")
	viewerID := c.GetString("user_id")

	var post models.Post
	if err := database.DB.Preload("User").First(&post, "id = ?", postID).Error; util.HandleDBError(c, err, "post") {
		return
	}

	if !canViewPosts(viewerID, &post.User) {
		// 404, not 403: private content must not confirm its existence
		util.RespondNotFound(c, "post")
		return
	}

	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost soft-deletes a post the user owns
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	postID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; util.HandleDBError(c, err, "post") {
		return
	}

	if post.UserID != user.ID && !user.IsAdmin {
		util.RespondForbidden(c, "You can only delete your own posts")
		return
	}

	if err := database.DB.Delete(&post).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete post")
		return
	}

	if err := database.DB.Model(&models.User{}).Where("id = ?", post.UserID).
		UpdateColumn("post_count", gorm.Expr("post_count - 1")).Error; err != nil {
		logger.WarnWithFields("Failed to decrement post count for user "+post.UserID, err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted", "post_id": postID})
}

// UploadPostImage uploads an image for use in a post
// POST /api/v1/posts/image
func (h *Handlers) UploadPostImage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if h.uploader == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("image uploads"))
		return
	}

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		util.RespondBadRequest(c, "missing image file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageSize+1))
	if err != nil {
		util.RespondInternalError(c, "Failed to read image")
		return
	}

	result, err := h.uploader.UploadImage(c.Request.Context(), data, user.ID)
	if err != nil {
		switch err {
		case storage.ErrImageTooLarge:
			util.RespondBadRequest(c, "image exceeds maximum size")
		case storage.ErrUnsupportedImageType:
			util.RespondBadRequest(c, "unsupported image type")
		default:
			logger.ErrorWithFields("Failed to upload image", err)
			util.RespondInternalError(c, "Failed to upload image")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": result.URL, "key": result.Key, "size": result.Size})
}

// ReportPost files a moderation report against a post
// POST /api/v1/posts/:id/report
func (h *Handlers) ReportPost(c *gin.Context) {
	postID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Reason      models.ReportReason `json:"reason" binding:"required"`
		Description string              `json:"description,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	switch req.Reason {
	case models.ReportReasonSpam, models.ReportReasonHarassment, models.ReportReasonCopyright,
		models.ReportReasonInappropriate, models.ReportReasonViolence, models.ReportReasonOther:
	default:
		util.RespondValidationError(c, "reason", "unknown report reason")
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; util.HandleDBError(c, err, "post") {
		return
	}

	report := models.Report{
		ReporterID:   user.ID,
		TargetType:   models.ReportTargetPost,
		TargetID:     postID,
		TargetUserID: &post.UserID,
		Reason:       req.Reason,
		Description:  req.Description,
	}
	if err := database.DB.Create(&report).Error; err != nil {
		util.RespondInternalError(c, "Failed to file report")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "reported", "report_id": report.ID})
}
