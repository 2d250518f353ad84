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

// bumpFollowCounters adjusts the cached follower/following counters by delta.
func bumpFollowCounters(followerID, followeeID string, delta int) {
	expr := gorm.Expr("following_count + ?", delta)
	if err := database.DB.Model(&models.User{}).Where("id = ?", followerID).
		UpdateColumn("following_count", expr).Error; err != nil {
		logger.WarnWithFields("Failed to update following count for "+followerID, err)
	}
	expr = gorm.Expr("follower_count + ?", delta)
	if err := database.DB.Model(&models.User{}).Where("id = ?", followeeID).
		UpdateColumn("follower_count", expr).Error; err != nil {
		logger.WarnWithFields("Failed to update follower count for "+followeeID, err)
	}
}

// FollowUser follows a user. Following a private account creates a pending
// request instead of an accepted edge.
// POST /api/v1/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	targetID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	if targetID == user.ID {
		util.RespondBadRequest(c, "you cannot follow yourself")
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; util.HandleDBError(c, err, "user") {
		return
	}

	if isBlockedEitherWay(user.ID, targetID) {
		util.RespondNotFound(c, "user")
		return
	}

	// Idempotent: an existing edge (accepted or pending) short-circuits
	var existing models.Follow
	err := database.DB.Where("follower_id = ? AND followee_id = ?", user.ID, targetID).First(&existing).Error
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"status": string(existing.Status)})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondInternalError(c, "Failed to follow user")
		return
	}

	status := models.FollowAccepted
	notifType := models.NotificationFollow
	if target.IsPrivate {
		status = models.FollowPending
		notifType = models.NotificationFollowRequest
	}

	follow := models.Follow{
		FollowerID: user.ID,
		FolloweeID: targetID,
		Status:     status,
	}
	if err := database.DB.Create(&follow).Error; err != nil {
		util.RespondInternalError(c, "Failed to follow user")
		return
	}

	if status == models.FollowAccepted {
		bumpFollowCounters(user.ID, targetID, 1)
	}

	if err := createNotification(targetID, user.ID, notifType, nil, nil); err != nil {
		logger.WarnWithFields("Failed to notify about follow of "+targetID, err)
	}

	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}

// UnfollowUser removes a follow edge or withdraws a pending request
// DELETE /api/v1/users/:id/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	targetID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var follow models.Follow
	err := database.DB.Where("follower_id = ? AND followee_id = ?", user.ID, targetID).First(&follow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, gin.H{"status": "not_following"})
		return
	}
	if err != nil {
		util.RespondInternalError(c, "Failed to unfollow user")
		return
	}

	wasAccepted := follow.Status == models.FollowAccepted
	if err := database.DB.Delete(&follow).Error; err != nil {
		util.RespondInternalError(c, "Failed to unfollow user")
		return
	}
	if wasAccepted {
		bumpFollowCounters(user.ID, targetID, -1)
	}

	c.JSON(http.StatusOK, gin.H{"status": "unfollowed"})
}

// GetFollowRequests returns pending follow requests for the authenticated user
// GET /api/v1/users/me/follow-requests
func (h *Handlers) GetFollowRequests(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var requests []models.Follow
	err := database.DB.Where("followee_id = ? AND status = ?", user.ID, models.FollowPending).
		Preload("Follower").
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch follow requests")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"count":    len(requests),
	})
}

// AcceptFollowRequest accepts a pending follow request addressed to the user
// POST /api/v1/follow-requests/:id/accept
func (h *Handlers) AcceptFollowRequest(c *gin.Context) {
	requestID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var request models.Follow
	err := database.DB.Where("id = ? AND followee_id = ? AND status = ?",
		requestID, user.ID, models.FollowPending).First(&request).Error
	if util.HandleDBError(c, err, "request") {
		return
	}

	if err := database.DB.Model(&request).UpdateColumn("status", models.FollowAccepted).Error; err != nil {
		util.RespondInternalError(c, "Failed to accept follow request")
		return
	}
	bumpFollowCounters(request.FollowerID, user.ID, 1)

	if err := createNotification(request.FollowerID, user.ID, models.NotificationFollow, nil, nil); err != nil {
		logger.WarnWithFields("Failed to notify about accepted follow request", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// DeclineFollowRequest declines a pending follow request addressed to the user
// POST /api/v1/follow-requests/:id/decline
func (h *Handlers) DeclineFollowRequest(c *gin.Context) {
	requestID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var request models.Follow
	err := database.DB.Where("id = ? AND followee_id = ? AND status = ?",
		requestID, user.ID, models.FollowPending).First(&request).Error
	if util.HandleDBError(c, err, "request") {
		return
	}

	if err := database.DB.Delete(&request).Error; err != nil {
		util.RespondInternalError(c, "Failed to decline follow request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "declined"})
}

// GetFollowers lists a user's accepted followers
// GET /api/v1/users/:id/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	targetID := c.Param("id")
	viewerID := c.GetString("user_id")
	limit := util.ClampInt(util.ParseInt(c.DefaultQuery("limit", "50"), 50), 1, 100)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; util.HandleDBError(c, err, "user") {
		return
	}
	if !canViewPosts(viewerID, &target) {
		util.RespondNotFound(c, "user")
		return
	}

	var follows []models.Follow
	err := database.DB.Where("followee_id = ? AND status = ?", targetID, models.FollowAccepted).
		Preload("Follower").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch followers")
		return
	}

	users := make([]models.User, len(follows))
	for i, f := range follows {
		users[i] = f.Follower
	}

	c.JSON(http.StatusOK, gin.H{"followers": users, "count": len(users)})
}

// GetFollowing lists who a user follows (accepted edges only)
// GET /api/v1/users/:id/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	targetID := c.Param("id")
	viewerID := c.GetString("user_id")
	limit := util.ClampInt(util.ParseInt(c.DefaultQuery("limit", "50"), 50), 1, 100)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	var target models.User
	if err := database.DB.First(&target, "id = ?", targetID).Error; util.HandleDBError(c, err, "user") {
		return
	}
	if !canViewPosts(viewerID, &target) {
		util.RespondNotFound(c, "user")
		return
	}

	var follows []models.Follow
	err := database.DB.Where("follower_id = ? AND status = ?", targetID, models.FollowAccepted).
		Preload("Followee").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&follows).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch following")
		return
	}

	users := make([]models.User, len(follows))
	for i, f := range follows {
		users[i] = f.Followee
	}

	c.JSON(http.StatusOK, gin.H{"following": users, "count": len(users)})
}
