// Package feed builds cursor-paginated queries over the posts table.
//
// Pages are ordered by (created_at DESC, id DESC). The id tie-break gives a
// strict total order even when many posts share a creation timestamp, so
// consecutive pages never skip or repeat items.
package feed

import (
	"errors"
	"time"

	"github.com/buzzboard/backend/internal/models"
	"gorm.io/gorm"
)

const (
	// DefaultLimit is the page size when the client sends none
	DefaultLimit = 20
	// MaxLimit caps the page size
	MaxLimit = 100
)

// Cursor points at the last item of the previously returned page.
type Cursor struct {
	ID        string
	CreatedAt time.Time
}

// Filters are the optional equality filters ANDed with the cursor predicate.
type Filters struct {
	// AuthorID restricts the page to a single author
	AuthorID string
	// Hashtag restricts the page to posts carrying the tag (lowercase, no #)
	Hashtag string
	// ViewerID enables privacy filtering: posts by private authors the
	// viewer does not follow are excluded, as are posts by users who
	// blocked the viewer or whom the viewer blocked. Empty means an
	// anonymous viewer, who only sees posts by public authors.
	ViewerID string
}

// Page is the fully-resolved query shape for one feed page. All legal
// predicate combinations are expressed here and compiled in apply, nowhere
// else.
type Page struct {
	Cursor  *Cursor
	Filters Filters
	Limit   int
}

// Result is one page of posts plus continuation state.
type Result struct {
	Posts      []models.Post
	NextCursor *string
	HasMore    bool
}

// ClampLimit normalizes a requested page size to [1, MaxLimit]. Callers
// substitute DefaultLimit before calling when the request carries no limit.
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// BuildPage resolves cursorID and assembles the page description. A cursor
// that no longer resolves to a live post degrades to first-page behavior:
// the referenced post being deleted is a normal occurrence, not a client
// error.
func BuildPage(db *gorm.DB, cursorID string, limit int, filters Filters) (Page, error) {
	page := Page{Filters: filters, Limit: ClampLimit(limit)}

	if cursorID == "" {
		return page, nil
	}

	var post models.Post
	err := db.Select("id", "created_at").First(&post, "id = ?", cursorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return page, nil
		}
		return Page{}, err
	}

	page.Cursor = &Cursor{ID: post.ID, CreatedAt: post.CreatedAt}
	return page, nil
}

// apply compiles the page predicate onto a query. This is the single place
// where the cursor comparison and filters become SQL.
func (p Page) apply(db *gorm.DB) *gorm.DB {
	q := db.Model(&models.Post{})

	if p.Cursor != nil {
		// Strict less-than on the composite key (created_at, id)
		q = q.Where(
			"posts.created_at < ? OR (posts.created_at = ? AND posts.id < ?)",
			p.Cursor.CreatedAt, p.Cursor.CreatedAt, p.Cursor.ID,
		)
	}

	if p.Filters.AuthorID != "" {
		q = q.Where("posts.user_id = ?", p.Filters.AuthorID)
	}

	if p.Filters.Hashtag != "" {
		q = q.Where(
			"posts.id IN (SELECT post_hashtags.post_id FROM post_hashtags JOIN hashtags ON hashtags.id = post_hashtags.hashtag_id WHERE hashtags.name = ?)",
			p.Filters.Hashtag,
		)
	}

	if p.Filters.ViewerID == "" {
		// Anonymous viewers only see posts by public authors
		q = q.Where(
			"posts.user_id NOT IN (SELECT users.id FROM users WHERE users.is_private = ?)",
			true,
		)
	} else {
		viewer := p.Filters.ViewerID
		q = q.Where(
			"(posts.user_id = ? OR posts.user_id NOT IN (SELECT users.id FROM users WHERE users.is_private = ? AND users.id NOT IN (SELECT follows.followee_id FROM follows WHERE follows.follower_id = ? AND follows.status = ? AND follows.deleted_at IS NULL)))",
			viewer, true, viewer, models.FollowAccepted,
		)
		q = q.Where(
			"posts.user_id NOT IN (SELECT user_blocks.blocked_id FROM user_blocks WHERE user_blocks.blocker_id = ? AND user_blocks.deleted_at IS NULL)",
			viewer,
		)
		q = q.Where(
			"posts.user_id NOT IN (SELECT user_blocks.blocker_id FROM user_blocks WHERE user_blocks.blocked_id = ? AND user_blocks.deleted_at IS NULL)",
			viewer,
		)
	}

	return q.Order("posts.created_at DESC, posts.id DESC")
}

// Run executes the page query. It fetches limit+1 rows to learn whether a
// further page exists; the extra row is discarded from the result.
func (p Page) Run(db *gorm.DB) (Result, error) {
	var posts []models.Post
	err := p.apply(db).
		Preload("User").
		Limit(p.Limit + 1).
		Find(&posts).Error
	if err != nil {
		return Result{}, err
	}

	res := Result{Posts: posts}
	if len(posts) > p.Limit {
		res.Posts = posts[:p.Limit]
		res.HasMore = true
	}
	if res.HasMore && len(res.Posts) > 0 {
		last := res.Posts[len(res.Posts)-1].ID
		res.NextCursor = &last
	}
	return res, nil
}
