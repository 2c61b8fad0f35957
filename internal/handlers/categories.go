package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blogicum/backend/internal/cache"
	"github.com/blogicum/backend/internal/feed"
	"github.com/blogicum/backend/internal/models"
)

type CategoryHandler struct {
	db    *gorm.DB
	cache *cache.RedisClient
	feed  *feed.Engine
}

func NewCategoryHandler(db *gorm.DB, redisCache *cache.RedisClient) *CategoryHandler {
	return &CategoryHandler{db: db, cache: redisCache, feed: feed.NewEngine(db)}
}

// GetCategoryPosts returns the public feed of one published category.
// Unpublished or missing categories answer 404 regardless of their posts.
// The category row itself may come from the cache; the feed never does.
func (h *CategoryHandler) GetCategoryPosts(c *gin.Context) {
	slug := c.Param("slug")
	ctx := c.Request.Context()

	var category models.Category
	key := "category:" + slug
	found, err := h.cache.GetJSON(ctx, key, &category)
	if err != nil {
		found = false
	}
	if !found {
		err := h.db.WithContext(ctx).
			Where("slug = ? AND is_published = ?", slug, true).
			First(&category).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		_ = h.cache.SetJSON(ctx, key, category)
	}

	page, err := h.feed.Fetch(ctx, feed.Query{
		PublicOnly:   true,
		CategorySlug: slug,
		Page:         parsePage(c),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category":    category,
		"posts":       page.Posts,
		"page":        page.Number,
		"total_pages": page.TotalPages,
		"total_posts": page.TotalPosts,
	})
}
