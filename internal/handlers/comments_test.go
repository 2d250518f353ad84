package handlers

import (
	"encoding/json"
	"fmt"
	"io"
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

// CommentsTestSuite covers threaded comments: create, reply nesting,
// editing and the tombstone deletion rule
type CommentsTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	handlers *Handlers
	alice    *models.User
	bob      *models.User
	post     *models.Post
}

func (suite *CommentsTestSuite) SetupSuite() {
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
		&models.CommentLike{},
		&models.Follow{},
		&models.UserBlock{},
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

func (suite *CommentsTestSuite) setupRoutes() {
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
	api.POST("/posts/:id/comments", suite.handlers.CreateComment)
	api.GET("/posts/:id/comments", suite.handlers.GetComments)
	api.PUT("/comments/:id", suite.handlers.UpdateComment)
	api.DELETE("/comments/:id", suite.handlers.DeleteComment)
}

func (suite *CommentsTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM notifications")
	suite.db.Exec("DELETE FROM mentions")
	suite.db.Exec("DELETE FROM comments")
	suite.db.Exec("DELETE FROM posts")
	suite.db.Exec("DELETE FROM users")

	suite.alice = &models.User{Email: "alice@example.com", Username: "alice", DisplayName: "Alice"}
	require.NoError(suite.T(), suite.db.Create(suite.alice).Error)
	suite.bob = &models.User{Email: "bob@example.com", Username: "bob", DisplayName: "Bob"}
	require.NoError(suite.T(), suite.db.Create(suite.bob).Error)

	suite.post = &models.Post{UserID: suite.alice.ID, Content: "thread starter", IsPublic: true}
	require.NoError(suite.T(), suite.db.Create(suite.post).Error)
}

func (suite *CommentsTestSuite) do(method, url, asUser string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if asUser != "" {
		req.Header.Set("X-User-ID", asUser)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *CommentsTestSuite) createComment(asUser, content, parentID string) models.Comment {
	body := fmt.Sprintf(`{"content": %q}`, content)
	if parentID != "" {
		body = fmt.Sprintf(`{"content": %q, "parent_id": %q}`, content, parentID)
	}
	w := suite.do("POST", "/api/v1/posts/"+suite.post.ID+"/comments", asUser, jsonBody(body))
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Comment models.Comment `json:"comment"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Comment
}

func (suite *CommentsTestSuite) TestCreateCommentBumpsCountAndNotifies() {
	t := suite.T()

	comment := suite.createComment(suite.bob.ID, "nice post", "")
	assert.Equal(t, suite.bob.ID, comment.UserID)
	assert.Nil(t, comment.ParentID)

	var reloaded models.Post
	require.NoError(t, suite.db.First(&reloaded, "id = ?", suite.post.ID).Error)
	assert.Equal(t, 1, reloaded.CommentCount)

	var notifs []models.Notification
	require.NoError(t, suite.db.Where("user_id = ?", suite.alice.ID).Find(&notifs).Error)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotificationComment, notifs[0].Type)
	assert.Equal(t, suite.bob.ID, notifs[0].ActorID)
}

func (suite *CommentsTestSuite) TestReplyNotifiesParentAuthor() {
	t := suite.T()

	top := suite.createComment(suite.bob.ID, "top level", "")
	reply := suite.createComment(suite.alice.ID, "replying to bob", top.ID)

	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)

	var notifs []models.Notification
	require.NoError(t, suite.db.Where("user_id = ? AND type = ?", suite.bob.ID, models.NotificationReply).Find(&notifs).Error)
	require.Len(t, notifs, 1)
	assert.Equal(t, suite.alice.ID, notifs[0].ActorID)
}

func (suite *CommentsTestSuite) TestReplyToReplyFlattensToOneLevel() {
	t := suite.T()

	top := suite.createComment(suite.bob.ID, "top level", "")
	reply := suite.createComment(suite.alice.ID, "first reply", top.ID)
	deep := suite.createComment(suite.bob.ID, "reply to the reply", reply.ID)

	// Nesting is capped at one level: the grandchild attaches to the root
	require.NotNil(t, deep.ParentID)
	assert.Equal(t, top.ID, *deep.ParentID)
}

func (suite *CommentsTestSuite) TestReplyToForeignCommentRejected() {
	t := suite.T()

	otherPost := models.Post{UserID: suite.bob.ID, Content: "another thread", IsPublic: true}
	require.NoError(t, suite.db.Create(&otherPost).Error)
	foreign := models.Comment{PostID: otherPost.ID, UserID: suite.bob.ID, Content: "elsewhere"}
	require.NoError(t, suite.db.Create(&foreign).Error)

	body := fmt.Sprintf(`{"content": "crossing threads", "parent_id": %q}`, foreign.ID)
	w := suite.do("POST", "/api/v1/posts/"+suite.post.ID+"/comments", suite.alice.ID, jsonBody(body))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *CommentsTestSuite) TestGetCommentsNestsReplies() {
	t := suite.T()

	top := suite.createComment(suite.bob.ID, "top level", "")
	suite.createComment(suite.alice.ID, "reply one", top.ID)
	suite.createComment(suite.bob.ID, "reply two", top.ID)
	suite.createComment(suite.alice.ID, "another top", "")

	w := suite.do("GET", "/api/v1/posts/"+suite.post.ID+"/comments", suite.alice.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Comments []models.Comment `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	// Only top-level comments at the root, newest first
	require.Len(t, resp.Comments, 2)
	assert.Equal(t, "another top", resp.Comments[0].Content)
	assert.Equal(t, "top level", resp.Comments[1].Content)
	require.Len(t, resp.Comments[1].Replies, 2)
	assert.Equal(t, "reply one", resp.Comments[1].Replies[0].Content)
}

func (suite *CommentsTestSuite) TestUpdateCommentSetsEditedFlag() {
	t := suite.T()

	comment := suite.createComment(suite.bob.ID, "tpyo", "")

	w := suite.do("PUT", "/api/v1/comments/"+comment.ID, suite.bob.ID, jsonBody(`{"content": "typo"}`))
	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Comment
	require.NoError(t, suite.db.First(&reloaded, "id = ?", comment.ID).Error)
	assert.Equal(t, "typo", reloaded.Content)
	assert.True(t, reloaded.IsEdited)
	assert.NotNil(t, reloaded.EditedAt)

	// Someone else cannot edit it
	w = suite.do("PUT", "/api/v1/comments/"+comment.ID, suite.alice.ID, jsonBody(`{"content": "hijack"}`))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func (suite *CommentsTestSuite) TestDeleteLeafCommentRemovesRow() {
	t := suite.T()

	comment := suite.createComment(suite.bob.ID, "short-lived", "")

	w := suite.do("DELETE", "/api/v1/comments/"+comment.ID, suite.bob.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Comment{}).Where("id = ?", comment.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	var reloaded models.Post
	require.NoError(t, suite.db.First(&reloaded, "id = ?", suite.post.ID).Error)
	assert.Equal(t, 0, reloaded.CommentCount)
}

func (suite *CommentsTestSuite) TestDeleteCommentWithRepliesTombstones() {
	t := suite.T()

	top := suite.createComment(suite.bob.ID, "controversial", "")
	suite.createComment(suite.alice.ID, "disagree", top.ID)

	w := suite.do("DELETE", "/api/v1/comments/"+top.ID, suite.bob.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// The row survives as a tombstone so the reply keeps its anchor
	var reloaded models.Comment
	require.NoError(t, suite.db.First(&reloaded, "id = ?", top.ID).Error)
	assert.True(t, reloaded.IsDeleted)
	assert.Empty(t, reloaded.Content)

	var replyCount int64
	suite.db.Model(&models.Comment{}).Where("parent_id = ?", top.ID).Count(&replyCount)
	assert.Equal(t, int64(1), replyCount)
}

func TestCommentsTestSuite(t *testing.T) {
	suite.Run(t, new(CommentsTestSuite))
}
