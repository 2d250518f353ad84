package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/buzzboard/backend/internal/cache"
	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/logger"
	"github.com/buzzboard/backend/internal/models"
	"github.com/buzzboard/backend/internal/util"
)

const trendingCacheKey = "trending_hashtags"

// GetTrendingHashtags returns hashtags ordered by recent usage
// GET /api/v1/hashtags/trending
func (h *Handlers) GetTrendingHashtags(c *gin.Context) {
	limit := util.ClampInt(util.ParseInt(c.DefaultQuery("limit", "10"), 10), 1, 50)

	// Redis sorted set is the fast path; fall back to the post_count
	// column when redis is absent or empty
	if redisClient := cache.GetRedisClient(); redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		entries, err := redisClient.ZRevRangeWithScores(ctx, trendingCacheKey, 0, int64(limit-1))
		if err == nil && len(entries) > 0 {
			tags := make([]gin.H, len(entries))
			for i, entry := range entries {
				name, _ := entry.Member.(string)
				tags[i] = gin.H{"name": name, "post_count": int(entry.Score)}
			}
			c.JSON(http.StatusOK, gin.H{"hashtags": tags, "source": "cache"})
			return
		}
	}

	var tags []models.Hashtag
	err := database.DB.Order("post_count DESC, last_used_at DESC").
		Limit(limit).
		Find(&tags).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to fetch trending hashtags")
		return
	}

	c.JSON(http.StatusOK, gin.H{"hashtags": tags, "source": "database"})
}

// GetHashtag returns one hashtag's metadata
// GET /api/v1/hashtags/:name
func (h *Handlers) GetHashtag(c *gin.Context) {
	name := c.Param("name")

	var tag models.Hashtag
	if err := database.DB.Where("name = ?", name).First(&tag).Error; util.HandleDBError(c, err, "hashtag") {
		return
	}

	c.JSON(http.StatusOK, gin.H{"hashtag": tag})
}

// bumpTrendingHashtag records one use of a hashtag in the redis sorted set.
// Best effort: a cold or absent redis only degrades the trending endpoint
// to its database path.
func bumpTrendingHashtag(name string) {
	redisClient := cache.GetRedisClient()
	if redisClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := redisClient.ZIncrBy(ctx, trendingCacheKey, 1, name); err != nil {
		logger.WarnWithFields("Failed to bump trending hashtag "+name, err)
		return
	}
	if err := redisClient.Expire(ctx, trendingCacheKey, 24*time.Hour); err != nil {
		logger.WarnWithFields("Failed to refresh trending hashtag TTL", err)
	}
}
