package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buzzboard/backend/internal/database"
	apierrors "github.com/buzzboard/backend/internal/errors"
	"github.com/buzzboard/backend/internal/logger"
	"github.com/buzzboard/backend/internal/models"
	"github.com/buzzboard/backend/internal/storage"
	"github.com/buzzboard/backend/internal/util"
)

// GetUser returns a user's public profile
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	targetID := c.Param("id")
	viewerID := c.GetString("user_id")

	var user models.User
	if err := database.DB.First(&user, "id = ?", targetID).Error; util.HandleDBError(c, err, "user") {
		return
	}

	if viewerID != "" && isBlockedEitherWay(viewerID, targetID) {
		util.RespondNotFound(c, "user")
		return
	}

	response := gin.H{"user": user}
	if viewerID != "" && viewerID != targetID {
		response["is_following"] = isFollowing(viewerID, targetID)
	}

	c.JSON(http.StatusOK, response)
}

// UpdateProfile updates the authenticated user's profile fields
// PUT /api/v1/users/me
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		DisplayName *string `json:"display_name,omitempty" binding:"omitempty,min=1,max=50"`
		Bio         *string `json:"bio,omitempty" binding:"omitempty,max=500"`
		Location    *string `json:"location,omitempty" binding:"omitempty,max=100"`
		WebsiteURL  *string `json:"website_url,omitempty" binding:"omitempty,max=200"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.WebsiteURL != nil {
		updates["website_url"] = *req.WebsiteURL
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdatePrivacySettings updates the private-account flag and mention policy
// PUT /api/v1/users/me/privacy
func (h *Handlers) UpdatePrivacySettings(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		IsPrivate    *bool                 `json:"is_private,omitempty"`
		MentionsFrom *models.MentionPolicy `json:"mentions_from,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.IsPrivate != nil {
		updates["is_private"] = *req.IsPrivate
	}
	if req.MentionsFrom != nil {
		switch *req.MentionsFrom {
		case models.MentionsFromEveryone, models.MentionsFromFollowers, models.MentionsFromNobody:
			updates["mentions_from"] = *req.MentionsFrom
		default:
			util.RespondValidationError(c, "mentions_from", "unknown mention policy")
			return
		}
	}
	if len(updates) == 0 {
		util.RespondBadRequest(c, "no fields to update")
		return
	}

	if err := database.DB.Model(user).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update privacy settings")
		return
	}

	// An account going public auto-accepts its pending follow requests
	if req.IsPrivate != nil && !*req.IsPrivate {
		var pending []models.Follow
		if err := database.DB.Where("followee_id = ? AND status = ?", user.ID, models.FollowPending).
			Find(&pending).Error; err == nil {
			for _, f := range pending {
				if err := database.DB.Model(&f).UpdateColumn("status", models.FollowAccepted).Error; err != nil {
					logger.WarnWithFields("Failed to auto-accept follow request "+f.ID, err)
					continue
				}
				bumpFollowCounters(f.FollowerID, user.ID, 1)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UploadAvatar uploads and sets the user's avatar image
// POST /api/v1/users/me/avatar
func (h *Handlers) UploadAvatar(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if h.uploader == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("image uploads"))
		return
	}

	file, _, err := c.Request.FormFile("avatar")
	if err != nil {
		util.RespondBadRequest(c, "missing avatar file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxImageSize+1))
	if err != nil {
		util.RespondInternalError(c, "Failed to read avatar")
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
			logger.ErrorWithFields("Failed to upload avatar", err)
			util.RespondInternalError(c, "Failed to upload avatar")
		}
		return
	}

	if err := database.DB.Model(user).UpdateColumn("avatar_url", result.URL).Error; err != nil {
		util.RespondInternalError(c, "Failed to save avatar")
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": result.URL})
}

// BlockUser blocks another user. Any follow edges between the two are
// severed in both directions.
// POST /api/v1/users/:id/block
func (h *Handlers) BlockUser(c *gin.Context) {
	targetID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if targetID == user.ID {
		util.RespondBadRequest(c, "you cannot block yourself")
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; util.HandleDBError(c, err, "user") {
		return
	}

	var existing models.UserBlock
	err := database.DB.Where("blocker_id = ? AND blocked_id = ?", user.ID, targetID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"status": "blocked"})
		return
	}

	block := models.UserBlock{BlockerID: user.ID, BlockedID: targetID}
	if err := database.DB.Create(&block).Error; err != nil {
		util.RespondInternalError(c, "Failed to block user")
		return
	}

	// Sever follows both ways, adjusting counters for accepted edges
	var edges []models.Follow
	database.DB.Where(
		"(follower_id = ? AND followee_id = ?) OR (follower_id = ? AND followee_id = ?)",
		user.ID, targetID, targetID, user.ID,
	).Find(&edges)
	for _, edge := range edges {
		if err := database.DB.Delete(&edge).Error; err != nil {
			logger.WarnWithFields("Failed to sever follow edge "+edge.ID, err)
			continue
		}
		if edge.Status == models.FollowAccepted {
			bumpFollowCounters(edge.FollowerID, edge.FolloweeID, -1)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "blocked"})
}

// UnblockUser removes a block the user placed
// DELETE /api/v1/users/:id/block
func (h *Handlers) UnblockUser(c *gin.Context) {
	targetID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	res := database.DB.Where("blocker_id = ? AND blocked_id = ?", user.ID, targetID).Delete(&models.UserBlock{})
	if res.Error != nil {
		util.RespondInternalError(c, "Failed to unblock user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "unblocked"})
}

// GetBlockedUsers lists the users the authenticated user has blocked
// GET /api/v1/users/me/blocks
func (h *Handlers) GetBlockedUsers(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var blocks []models.UserBlock
	err := database.DB.Where("blocker_id = ?", user.ID).
		Preload("Blocked").
		Order("created_at DESC").
		Find(&blocks).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch blocked users")
		return
	}

	users := make([]models.User, len(blocks))
	for i, b := range blocks {
		users[i] = b.Blocked
	}

	c.JSON(http.StatusOK, gin.H{"blocked": users, "count": len(users)})
}
