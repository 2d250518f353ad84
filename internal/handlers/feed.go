package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/feed"
	"github.com/buzzboard/backend/internal/logger"
	"github.com/buzzboard/backend/internal/middleware"
	"github.com/buzzboard/backend/internal/util"
)

// GetFeed returns one cursor-paginated page of posts
// GET /api/v1/feed?cursor=&limit=&userId=&hashtag=
func (h *Handlers) GetFeed(c *gin.Context) {
	cursorID := c.Query("cursor")
	limit := util.ParseInt(c.DefaultQuery("limit", ""), feed.DefaultLimit)

	filters := feed.Filters{
		AuthorID: c.Query("userId"),
		Hashtag:  c.Query("hashtag"),
		ViewerID: c.GetString("user_id"),
	}

	start := time.Now()

	page, err := feed.BuildPage(database.DB, cursorID, limit, filters)
	if err != nil {
		logger.ErrorWithFields("Failed to resolve feed cursor", err)
		util.RespondInternalError(c, "Failed to load feed")
		return
	}

	result, err := page.Run(database.DB)
	if err != nil {
		logger.ErrorWithFields("Failed to query feed page", err)
		util.RespondInternalError(c, "Failed to load feed")
		return
	}

	middleware.RecordFeedPage("main", time.Since(start), len(result.Posts))

	c.JSON(http.StatusOK, gin.H{
		"posts":      result.Posts,
		"nextCursor": result.NextCursor,
		"hasMore":    result.HasMore,
		// Reserved for a future "new since you last looked" counter;
		// clients already consume the field.
		"totalNew": 0,
	})
}
