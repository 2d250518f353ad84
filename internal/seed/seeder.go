// Package seed fills the development database with realistic fake data.
package seed

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/buzzboard/backend/internal/logger"
	"github.com/buzzboard/backend/internal/models"
	"github.com/buzzboard/backend/internal/util"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev() error {
	logger.Log.Info("Creating users...")
	users, err := s.seedUsers(50)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	logger.Log.Info("Creating posts...")
	posts, err := s.seedPosts(users, 400)
	if err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating comments...")
	if err := s.seedComments(users, posts, 800); err != nil {
		return fmt.Errorf("failed to seed comments: %w", err)
	}

	logger.Log.Info("Creating likes...")
	if err := s.seedLikes(users, posts, 1500); err != nil {
		return fmt.Errorf("failed to seed likes: %w", err)
	}

	logger.Log.Info("Creating follows...")
	if err := s.seedFollows(users); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	logger.Log.Info("Seeding complete",
		zap.Int("users", len(users)),
		zap.Int("posts", len(posts)),
	)
	return nil
}

// SeedTest creates a minimal, deterministic fixture set for integration tests.
func (s *Seeder) SeedTest() error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	hash := string(hashedPassword)

	fixtures := []models.User{
		{Email: "alice@test.local", Username: "alice", DisplayName: "Alice Test", PasswordHash: &hash, EmailVerified: true},
		{Email: "bob@test.local", Username: "bob", DisplayName: "Bob Test", PasswordHash: &hash, EmailVerified: true},
		{Email: "carol@test.local", Username: "carol", DisplayName: "Carol Test", PasswordHash: &hash, EmailVerified: true, IsPrivate: true},
		{Email: "admin@test.local", Username: "admin", DisplayName: "Admin Test", PasswordHash: &hash, EmailVerified: true, IsAdmin: true},
	}
	for i := range fixtures {
		if err := s.db.Where("email = ?", fixtures[i].Email).
			FirstOrCreate(&fixtures[i]).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", fixtures[i].Username, err)
		}
	}

	post := models.Post{
		UserID:   fixtures[0].ID,
		Content:  "First post on the board #hello",
		IsPublic: true,
	}
	if err := s.db.Where("user_id = ? AND content = ?", post.UserID, post.Content).
		FirstOrCreate(&post).Error; err != nil {
		return fmt.Errorf("failed to create test post: %w", err)
	}
	s.linkHashtags(&post)

	return nil
}

// Clean removes all seeded data. Dev convenience, never wired to prod.
func (s *Seeder) Clean() error {
	tables := []string{
		"notifications", "mentions", "post_hashtags", "hashtags",
		"comment_likes", "likes", "comments", "user_blocks", "follows",
		"reports", "posts", "users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	var seedUserCount int64
	s.db.Model(&models.User{}).Where("email LIKE '%@example.com'").Count(&seedUserCount)
	if seedUserCount >= int64(count) {
		var users []models.User
		if err := s.db.Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing users, skipping creation",
			zap.Int("total_users", len(users)))
		return users, nil
	}

	// One hash shared by every dev account ("password123")
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashedPasswordStr := string(hashedPassword)

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := fmt.Sprintf("%s@example.com", username)

		var existing models.User
		for {
			err := s.db.Where("username = ? OR email = ?", username, email).First(&existing).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			username = gofakeit.Username()
			email = fmt.Sprintf("%s@example.com", username)
		}

		user := models.User{
			Email:         email,
			Username:      username,
			DisplayName:   gofakeit.Name(),
			Bio:           gofakeit.HipsterSentence(),
			Location:      fmt.Sprintf("%s, %s", gofakeit.City(), gofakeit.Country()),
			PasswordHash:  &hashedPasswordStr,
			EmailVerified: true,
			AvatarURL:     fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/png?seed=%s", username),
			// Roughly one in five accounts is private
			IsPrivate: rand.Intn(5) == 0,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

var seedTags = []string{
	"coffee", "travel", "music", "books", "running", "food",
	"photography", "coding", "gaming", "movies",
}

func (s *Seeder) seedPosts(users []models.User, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)

	// Spread creation times over the past 30 days, with occasional bursts
	// sharing one timestamp so cursor tie-breaking gets exercised
	now := time.Now()
	for i := 0; i < count; i++ {
		author := users[rand.Intn(len(users))]

		content := gofakeit.HipsterSentence()
		if rand.Intn(2) == 0 {
			content += " #" + seedTags[rand.Intn(len(seedTags))]
		}
		if rand.Intn(6) == 0 {
			content += " @" + users[rand.Intn(len(users))].Username
		}

		createdAt := now.Add(-time.Duration(rand.Intn(30*24)) * time.Hour)
		if i%10 == 0 && len(posts) > 0 {
			createdAt = posts[len(posts)-1].CreatedAt
		}

		post := models.Post{
			UserID:    author.ID,
			Content:   content,
			IsPublic:  !author.IsPrivate,
			CreatedAt: createdAt,
		}
		if rand.Intn(4) == 0 {
			post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%d/800/600", i)
		}
		if err := s.db.Create(&post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)

		s.linkHashtags(&post)
	}

	// Refresh cached post counts once per user
	for _, user := range users {
		var n int64
		s.db.Model(&models.Post{}).Where("user_id = ?", user.ID).Count(&n)
		s.db.Model(&models.User{}).Where("id = ?", user.ID).UpdateColumn("post_count", n)
	}

	return posts, nil
}

// linkHashtags mirrors what the post creation endpoint does: extract tags,
// upsert rows, link, bump counters.
func (s *Seeder) linkHashtags(post *models.Post) {
	for _, name := range util.ExtractHashtags(post.Content) {
		var tag models.Hashtag
		err := s.db.Where("name = ?", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = models.Hashtag{Name: name, LastUsedAt: post.CreatedAt}
			err = s.db.Create(&tag).Error
		}
		if err != nil {
			continue
		}
		s.db.Create(&models.PostHashtag{PostID: post.ID, HashtagID: tag.ID})
		s.db.Model(&tag).UpdateColumn("post_count", gorm.Expr("post_count + 1"))
	}
}

func (s *Seeder) seedComments(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		post := posts[rand.Intn(len(posts))]
		comment := models.Comment{
			PostID:  post.ID,
			UserID:  users[rand.Intn(len(users))].ID,
			Content: gofakeit.Sentence(rand.Intn(12) + 3),
		}
		if err := s.db.Create(&comment).Error; err != nil {
			return err
		}
		if err := s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedLikes(users []models.User, posts []models.Post, count int) error {
	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		post := posts[rand.Intn(len(posts))]

		var existing models.Like
		err := s.db.Where("user_id = ? AND post_id = ?", user.ID, post.ID).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := s.db.Create(&models.Like{UserID: user.ID, PostID: post.ID}).Error; err != nil {
			return err
		}
		if err := s.db.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedFollows(users []models.User) error {
	for _, follower := range users {
		// Each user follows 3-10 others
		n := rand.Intn(8) + 3
		for j := 0; j < n; j++ {
			followee := users[rand.Intn(len(users))]
			if followee.ID == follower.ID {
				continue
			}

			var existing models.Follow
			err := s.db.Where("follower_id = ? AND followee_id = ?", follower.ID, followee.ID).
				First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			status := models.FollowAccepted
			if followee.IsPrivate && rand.Intn(2) == 0 {
				status = models.FollowPending
			}

			follow := models.Follow{
				FollowerID: follower.ID,
				FolloweeID: followee.ID,
				Status:     status,
			}
			if err := s.db.Create(&follow).Error; err != nil {
				return err
			}

			if status == models.FollowAccepted {
				s.db.Model(&models.User{}).Where("id = ?", follower.ID).
					UpdateColumn("following_count", gorm.Expr("following_count + 1"))
				s.db.Model(&models.User{}).Where("id = ?", followee.ID).
					UpdateColumn("follower_count", gorm.Expr("follower_count + 1"))
			}
		}
	}
	return nil
}
