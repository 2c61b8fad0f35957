// Package feed builds the paginated post listings. The index, category and
// profile pages all run through one pipeline, differing only in which
// filters are switched on.
package feed

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/blogicum/backend/internal/models"
)

// PageSize is the fixed number of posts per feed page.
const PageSize = 10

// commentCountExpr annotates each row with a live count of its comments.
// Counting at query time keeps concurrent additions and deletions visible.
const commentCountExpr = "posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count"

// Query selects and filters one feed request.
type Query struct {
	// PublicOnly applies the public-visibility invariant: published post,
	// published (or absent) category, pub_date not in the future.
	PublicOnly bool
	// CategorySlug restricts the feed to one category when non-empty.
	CategorySlug string
	// AuthorID restricts the feed to one author's posts when non-zero.
	AuthorID int
	// Page is the requested 1-based page number. Out-of-range values are
	// clamped to the nearest valid page.
	Page int
}

// Page is one page of annotated feed results.
type Page struct {
	Posts      []models.Post `json:"posts"`
	Number     int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	TotalPosts int64         `json:"total_posts"`
}

type Engine struct {
	db *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// Fetch runs the feed pipeline: filter, annotate with comment counts,
// order by pub_date descending, paginate.
func (e *Engine) Fetch(ctx context.Context, q Query) (*Page, error) {
	now := time.Now().UTC()

	base := func() *gorm.DB {
		tx := e.db.WithContext(ctx).Model(&models.Post{})
		if q.PublicOnly || q.CategorySlug != "" {
			tx = tx.Joins("LEFT JOIN categories ON categories.id = posts.category_id")
		}
		if q.PublicOnly {
			tx = tx.Where("posts.is_published = ?", true).
				Where("posts.pub_date <= ?", now).
				Where("posts.category_id IS NULL OR categories.is_published = ?", true)
		}
		if q.CategorySlug != "" {
			tx = tx.Where("categories.slug = ?", q.CategorySlug)
		}
		if q.AuthorID != 0 {
			tx = tx.Where("posts.author_id = ?", q.AuthorID)
		}
		return tx
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, err
	}

	totalPages := int((total + PageSize - 1) / PageSize)
	if totalPages == 0 {
		totalPages = 1
	}
	page := clampPage(q.Page, totalPages)

	posts := []models.Post{}
	err := base().
		Select(commentCountExpr).
		Order("posts.pub_date DESC, posts.id DESC").
		Limit(PageSize).
		Offset((page - 1) * PageSize).
		Preload("Author").
		Preload("Category").
		Preload("Location").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	return &Page{
		Posts:      posts,
		Number:     page,
		TotalPages: totalPages,
		TotalPosts: total,
	}, nil
}

// clampPage snaps an out-of-range page number to the nearest valid page,
// the way standard paginators do, instead of erroring.
func clampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
