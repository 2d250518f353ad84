package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/models"
	"github.com/buzzboard/backend/internal/util"
)

// GetReports lists content reports for moderators, newest first.
// GET /api/v1/admin/reports?status=pending
func (h *Handlers) GetReports(c *gin.Context) {
	limit := util.ClampInt(util.ParseInt(c.DefaultQuery("limit", "20"), 20), 1, 100)
	offset := util.ParseInt(c.DefaultQuery("offset", "0"), 0)

	query := database.DB.Model(&models.Report{}).
		Preload("Reporter").
		Order("created_at DESC")

	if status := c.Query("status"); status != "" {
		switch models.ReportStatus(status) {
		case models.ReportStatusPending, models.ReportStatusReviewing,
			models.ReportStatusResolved, models.ReportStatusDismissed:
			query = query.Where("status = ?", status)
		default:
			util.RespondBadRequest(c, "Invalid report status")
			return
		}
	}

	var reports []models.Report
	if err := query.Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		util.RespondInternalError(c, "Failed to fetch reports")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}

// ResolveReport updates a report's status and records who moderated it.
// PUT /api/v1/admin/reports/:id
func (h *Handlers) ResolveReport(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	reportID := c.Param("id")

	var req struct {
		Status      models.ReportStatus `json:"status" binding:"required"`
		ActionTaken string              `json:"action_taken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "Invalid request: "+err.Error())
		return
	}

	switch req.Status {
	case models.ReportStatusReviewing, models.ReportStatusResolved, models.ReportStatusDismissed:
	default:
		util.RespondBadRequest(c, "Status must be reviewing, resolved or dismissed")
		return
	}

	var report models.Report
	if err := database.DB.Where("id = ?", reportID).First(&report).Error; util.HandleDBError(c, err, "report") {
		return
	}

	updates := map[string]interface{}{
		"status":       req.Status,
		"moderator_id": user.ID,
		"action_taken": req.ActionTaken,
	}
	if err := database.DB.Model(&report).Updates(updates).Error; err != nil {
		util.RespondInternalError(c, "Failed to update report")
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
