package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/models"
)

// SocialTestSuite covers likes, follows, blocks and notifications
type SocialTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	alice    *models.User
	bob      *models.User
}

func (suite *SocialTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(suite.T(), err)

	database.DB = db

	err = db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.CommentLike{},
		&models.Follow{},
		&models.UserBlock{},
		&models.Hashtag{},
		&models.PostHashtag{},
		&models.Mention{},
		&models.Notification{},
	)
	require.NoError(suite.T(), err)

	suite.db = db
	suite.handlers = NewHandlers(nil)

	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.setupRoutes()
}

func (suite *SocialTestSuite) setupRoutes() {
	api := suite.router.Group("/api/v1")

	authMiddleware := func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID != "" {
			var user models.User
			if err := suite.db.First(&user, "id = ?", userID).Error; err == nil {
				c.Set("user_id", user.ID)
				c.Set("user", &user)
			}
		}
		c.Next()
	}

	api.Use(authMiddleware)
	api.POST("/posts/:id/like", suite.handlers.LikePost)
	api.DELETE("/posts/:id/like", suite.handlers.UnlikePost)
	api.POST("/users/:id/follow", suite.handlers.FollowUser)
	api.DELETE("/users/:id/follow", suite.handlers.UnfollowUser)
	api.POST("/users/:id/block", suite.handlers.BlockUser)
	api.GET("/users/me/follow-requests", suite.handlers.GetFollowRequests)
	api.POST("/follow-requests/:id/accept", suite.handlers.AcceptFollowRequest)
	api.POST("/follow-requests/:id/decline", suite.handlers.DeclineFollowRequest)
	api.GET("/notifications", suite.handlers.GetNotifications)
	api.POST("/notifications/read", suite.handlers.MarkNotificationsRead)
	api.POST("/notifications/:id/read", suite.handlers.MarkNotificationRead)
}

func (suite *SocialTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM notifications")
	suite.db.Exec("DELETE FROM likes")
	suite.db.Exec("DELETE FROM comment_likes")
	suite.db.Exec("DELETE FROM follows")
	suite.db.Exec("DELETE FROM user_blocks")
	suite.db.Exec("DELETE FROM posts")
	suite.db.Exec("DELETE FROM users")

	suite.alice = &models.User{Email: "alice@example.com", Username: "alice", DisplayName: "Alice"}
	require.NoError(suite.T(), suite.db.Create(suite.alice).Error)
	suite.bob = &models.User{Email: "bob@example.com", Username: "bob", DisplayName: "Bob"}
	require.NoError(suite.T(), suite.db.Create(suite.bob).Error)
}

func (suite *SocialTestSuite) do(method, url, asUser string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, nil)
	if asUser != "" {
		req.Header.Set("X-User-ID", asUser)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *SocialTestSuite) TestLikeUnlikePost() {
	t := suite.T()

	post := models.Post{UserID: suite.bob.ID, Content: "hello"}
	require.NoError(t, suite.db.Create(&post).Error)

	w := suite.do("POST", "/api/v1/posts/"+post.ID+"/like", suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Post
	require.NoError(t, suite.db.First(&reloaded, "id = ?", post.ID).Error)
	assert.Equal(t, 1, reloaded.LikeCount)

	// Liking again does not double count
	w = suite.do("POST", "/api/v1/posts/"+post.ID+"/like", suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, suite.db.First(&reloaded, "id = ?", post.ID).Error)
	assert.Equal(t, 1, reloaded.LikeCount)

	// Bob got exactly one like notification
	var notifications []models.Notification
	require.NoError(t, suite.db.Where("user_id = ?", suite.bob.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationLike, notifications[0].Type)

	w = suite.do("DELETE", "/api/v1/posts/"+post.ID+"/like", suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, suite.db.First(&reloaded, "id = ?", post.ID).Error)
	assert.Equal(t, 0, reloaded.LikeCount)

	// Unliking when not liked is a no-op
	w = suite.do("DELETE", "/api/v1/posts/"+post.ID+"/like", suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, suite.db.First(&reloaded, "id = ?", post.ID).Error)
	assert.Equal(t, 0, reloaded.LikeCount)
}

func (suite *SocialTestSuite) TestLikeOwnPostNoNotification() {
	t := suite.T()

	post := models.Post{UserID: suite.alice.ID, Content: "self like"}
	require.NoError(t, suite.db.Create(&post).Error)

	w := suite.do("POST", "/api/v1/posts/"+post.ID+"/like", suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Notification{}).Count(&count)
	assert.Zero(t, count)
}

func (suite *SocialTestSuite) TestFollowPublicAccount() {
	t := suite.T()

	w := suite.do("POST", "/api/v1/users/"+suite.bob.ID+"/follow", suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "accepted", body["status"])

	var alice, bob models.User
	require.NoError(t, suite.db.First(&alice, "id = ?", suite.alice.ID).Error)
	require.NoError(t, suite.db.First(&bob, "id = ?", suite.bob.ID).Error)
	assert.Equal(t, 1, alice.FollowingCount)
	assert.Equal(t, 1, bob.FollowerCount)

	// Following twice stays idempotent
	w = suite.do("POST", "/api/v1/users/"+suite.bob.ID+"/follow", suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, suite.db.First(&bob, "id = ?", suite.bob.ID).Error)
	assert.Equal(t, 1, bob.FollowerCount)
}

func (suite *SocialTestSuite) TestFollowPrivateAccountIsPending() {
	t := suite.T()

	require.NoError(t, suite.db.Model(suite.bob).Update("is_private", true).Error)

	w := suite.do("POST", "/api/v1/users/"+suite.bob.ID+"/follow", suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "pending", body["status"])

	// No counters move while the request is pending
	var bob models.User
	require.NoError(t, suite.db.First(&bob, "id = ?", suite.bob.ID).Error)
	assert.Zero(t, bob.FollowerCount)

	// Bob sees the request and accepts it
	w = suite.do("GET", "/api/v1/users/me/follow-requests", suite.bob.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var follow models.Follow
	require.NoError(t, suite.db.Where("follower_id = ?", suite.alice.ID).First(&follow).Error)

	w = suite.do("POST", "/api/v1/follow-requests/"+follow.ID+"/accept", suite.bob.ID)
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, suite.db.First(&follow, "id = ?", follow.ID).Error)
	assert.Equal(t, models.FollowAccepted, follow.Status)
	require.NoError(t, suite.db.First(&bob, "id = ?", suite.bob.ID).Error)
	assert.Equal(t, 1, bob.FollowerCount)
}

func (suite *SocialTestSuite) TestDeclineFollowRequest() {
	t := suite.T()

	require.NoError(t, suite.db.Model(suite.bob).Update("is_private", true).Error)
	suite.do("POST", "/api/v1/users/"+suite.bob.ID+"/follow", suite.alice.ID)

	var follow models.Follow
	require.NoError(t, suite.db.Where("follower_id = ?", suite.alice.ID).First(&follow).Error)

	// Only the followee may decline
	w := suite.do("POST", "/api/v1/follow-requests/"+follow.ID+"/decline", suite.alice.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = suite.do("POST", "/api/v1/follow-requests/"+follow.ID+"/decline", suite.bob.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Follow{}).Count(&count)
	assert.Zero(t, count)
}

func (suite *SocialTestSuite) TestBlockSeversFollows() {
	t := suite.T()

	suite.do("POST", "/api/v1/users/"+suite.bob.ID+"/follow", suite.alice.ID)
	suite.do("POST", "/api/v1/users/"+suite.alice.ID+"/follow", suite.bob.ID)

	w := suite.do("POST", "/api/v1/users/"+suite.bob.ID+"/block", suite.alice.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Follow{}).Count(&count)
	assert.Zero(t, count, "block severs follow edges both ways")

	var alice models.User
	require.NoError(t, suite.db.First(&alice, "id = ?", suite.alice.ID).Error)
	assert.Zero(t, alice.FollowingCount)
	assert.Zero(t, alice.FollowerCount)

	// A blocked user cannot follow again
	w = suite.do("POST", "/api/v1/users/"+suite.alice.ID+"/follow", suite.bob.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *SocialTestSuite) TestNotificationCountsAndMarkRead() {
	t := suite.T()

	post := models.Post{UserID: suite.bob.ID, Content: "hello"}
	require.NoError(t, suite.db.Create(&post).Error)
	suite.do("POST", "/api/v1/posts/"+post.ID+"/like", suite.alice.ID)
	suite.do("POST", "/api/v1/users/"+suite.bob.ID+"/follow", suite.alice.ID)

	w := suite.do("GET", "/api/v1/notifications", suite.bob.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Notifications []models.Notification `json:"notifications"`
		Unseen        int                   `json:"unseen"`
		Unread        int                   `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Notifications, 2)
	assert.Equal(t, 2, resp.Unseen)
	assert.Equal(t, 2, resp.Unread)

	w = suite.do("POST", "/api/v1/notifications/read", suite.bob.ID)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.do("GET", "/api/v1/notifications", suite.bob.ID)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Unseen)
	assert.Zero(t, resp.Unread)
}

func (suite *SocialTestSuite) TestMarkForeignNotificationReadIsNotFound() {
	t := suite.T()

	post := models.Post{UserID: suite.bob.ID, Content: "hello"}
	require.NoError(t, suite.db.Create(&post).Error)
	suite.do("POST", "/api/v1/posts/"+post.ID+"/like", suite.alice.ID)

	var notification models.Notification
	require.NoError(t, suite.db.Where("user_id = ?", suite.bob.ID).First(&notification).Error)

	// Alice cannot mark bob's notification read
	w := suite.do("POST", "/api/v1/notifications/"+notification.ID+"/read", suite.alice.ID)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = suite.do("POST", "/api/v1/notifications/"+notification.ID+"/read", suite.bob.ID)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, suite.db.First(&notification, "id = ?", notification.ID).Error)
	assert.True(t, notification.Read)
}

func TestSocialTestSuite(t *testing.T) {
	suite.Run(t, new(SocialTestSuite))
}
