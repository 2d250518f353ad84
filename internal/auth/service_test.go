package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/models"
)

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService *Service
}

// SetupSuite initializes test database and auth service
func (suite *AuthServiceTestSuite) SetupSuite() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(suite.T(), err)

	// Set global DB for database package
	database.DB = db

	require.NoError(suite.T(), db.AutoMigrate(&models.User{}))

	suite.db = db
	suite.authService = NewService([]byte("test_jwt_secret_key"))
}

// SetupTest cleans database before each test
func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db.Exec("DELETE FROM users")
}

func (suite *AuthServiceTestSuite) TestRegister() {
	t := suite.T()

	req := RegisterRequest{
		Email:       "alice@example.com",
		Username:    "alice",
		Password:    "password123",
		DisplayName: "Alice",
	}

	authResp, err := suite.authService.Register(req)
	require.NoError(t, err)
	assert.NotEmpty(t, authResp.Token)
	assert.Equal(t, "alice@example.com", authResp.User.Email)
	assert.Equal(t, "alice", authResp.User.Username)
	assert.True(t, authResp.ExpiresAt.After(time.Now()))

	// Password hash must never be the plaintext
	require.NotNil(t, authResp.User.PasswordHash)
	assert.NotEqual(t, "password123", *authResp.User.PasswordHash)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	t := suite.T()

	req := RegisterRequest{
		Email:       "alice@example.com",
		Username:    "alice",
		Password:    "password123",
		DisplayName: "Alice",
	}
	_, err := suite.authService.Register(req)
	require.NoError(t, err)

	// Same email, different case
	req.Username = "alice2"
	req.Email = "ALICE@example.com"
	_, err = suite.authService.Register(req)
	assert.ErrorIs(t, err, ErrUserExists)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateUsername() {
	t := suite.T()

	_, err := suite.authService.Register(RegisterRequest{
		Email:       "alice@example.com",
		Username:    "alice",
		Password:    "password123",
		DisplayName: "Alice",
	})
	require.NoError(t, err)

	_, err = suite.authService.Register(RegisterRequest{
		Email:       "other@example.com",
		Username:    "Alice",
		Password:    "password123",
		DisplayName: "Alice Two",
	})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func (suite *AuthServiceTestSuite) TestLogin() {
	t := suite.T()

	_, err := suite.authService.Register(RegisterRequest{
		Email:       "alice@example.com",
		Username:    "alice",
		Password:    "password123",
		DisplayName: "Alice",
	})
	require.NoError(t, err)

	authResp, err := suite.authService.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, authResp.Token)

	// Wrong password
	_, err = suite.authService.Login(LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown email
	_, err = suite.authService.Login(LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func (suite *AuthServiceTestSuite) TestValidateToken() {
	t := suite.T()

	authResp, err := suite.authService.Register(RegisterRequest{
		Email:       "alice@example.com",
		Username:    "alice",
		Password:    "password123",
		DisplayName: "Alice",
	})
	require.NoError(t, err)

	user, err := suite.authService.ValidateToken(authResp.Token)
	require.NoError(t, err)
	assert.Equal(t, authResp.User.ID, user.ID)

	// Garbage token
	_, err = suite.authService.ValidateToken("not.a.token")
	assert.Error(t, err)

	// Token signed with a different secret
	other := NewService([]byte("different-secret"))
	otherResp, err := other.GenerateTokenForUser(&authResp.User)
	require.NoError(t, err)
	_, err = suite.authService.ValidateToken(otherResp.Token)
	assert.Error(t, err)
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
