package handlers

import (
	"gorm.io/gorm"

	"github.com/blogicum/backend/internal/cache"
)

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Post     *PostHandler
	Comment  *CommentHandler
	User     *UserHandler
	Category *CategoryHandler
}

// NewHandler creates a unified handler with all sub-handlers. The cache
// may be nil; only the category handler uses it.
func NewHandler(db *gorm.DB, redisCache *cache.RedisClient) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(db),
		Post:     NewPostHandler(db),
		Comment:  NewCommentHandler(db),
		User:     NewUserHandler(db),
		Category: NewCategoryHandler(db, redisCache),
	}
}
