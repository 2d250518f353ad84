package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/models"
	"github.com/buzzboard/backend/internal/util"
)

// GetNotifications gets the user's notifications with unseen/unread counts
// GET /api/v1/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit := util.ClampInt(util.ParseInt(c.DefaultQuery("limit", "20"), 20), 1, 100)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	var notifications []models.Notification
	err := database.DB.Where("user_id = ?", userID).
		Preload("Actor").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch notifications")
		return
	}

	var unseen, unread int64
	database.DB.Model(&models.Notification{}).Where("user_id = ? AND seen = ?", userID, false).Count(&unseen)
	database.DB.Model(&models.Notification{}).Where("user_id = ? AND read = ?", userID, false).Count(&unread)

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unseen":        unseen,
		"unread":        unread,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
			"count":  len(notifications),
		},
	})
}

// GetNotificationCounts gets just the unseen/unread counts for badge display
// GET /api/v1/notifications/counts
func (h *Handlers) GetNotificationCounts(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var unseen, unread int64
	database.DB.Model(&models.Notification{}).Where("user_id = ? AND seen = ?", userID, false).Count(&unseen)
	database.DB.Model(&models.Notification{}).Where("user_id = ? AND read = ?", userID, false).Count(&unread)

	c.JSON(http.StatusOK, gin.H{
		"unseen": unseen,
		"unread": unread,
	})
}

// MarkNotificationsRead marks all notifications as read
// POST /api/v1/notifications/read
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "seen": true}).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to mark notifications read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// MarkNotificationsSeen marks all notifications as seen (clears badge)
// POST /api/v1/notifications/seen
func (h *Handlers) MarkNotificationsSeen(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND seen = ?", userID, false).
		UpdateColumn("seen", true).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to mark notifications seen")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// MarkNotificationRead marks one notification as read
// POST /api/v1/notifications/:id/read
func (h *Handlers) MarkNotificationRead(c *gin.Context) {
	notificationID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var notification models.Notification
	err := database.DB.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error
	if util.HandleDBError(c, err, "notification") {
		return
	}

	err = database.DB.Model(&notification).
		Updates(map[string]interface{}{"read": true, "seen": true}).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to mark notification read")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
