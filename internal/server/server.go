package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/blogicum/backend/internal/cache"
	"github.com/blogicum/backend/internal/config"
	"github.com/blogicum/backend/internal/database"
	"github.com/blogicum/backend/internal/handlers"
	"github.com/blogicum/backend/internal/middleware"
)

type Server struct {
	db      database.Service
	cache   *cache.RedisClient
	handler *handlers.Handler
}

// New creates and configures a new server
func New(cfg *config.Config) *http.Server {
	db := database.New(cfg)

	// Redis is optional: without it the category lookup just hits the
	// database every time.
	var redisClient *cache.RedisClient
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rc, err := cache.New(ctx, cfg)
		if err != nil {
			log.Printf("Redis unavailable, running without cache: %v", err)
		} else {
			redisClient = rc
			log.Println("✅ Redis cache connected")
		}
	}

	handler := handlers.NewHandler(db.GetDB(), redisClient)

	newServer := &Server{
		db:      db,
		cache:   redisClient,
		handler: handler,
	}

	router := NewRouter(handler)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, newServer.db.Health())
	})

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", cfg.Port)

	return server
}

// NewRouter sets up all application routes. Identity runs on every
// request; there is no blanket auth group, each write route asks the
// policy guards itself.
func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))
	r.Use(middleware.RequestID())
	r.Use(middleware.Identity())

	// Feed
	r.GET("/", h.Post.Index)

	// Auth
	r.GET("/login", h.Auth.LoginForm)
	r.POST("/login", h.Auth.Login)
	r.POST("/register", h.Auth.Register)
	r.POST("/logout", h.Auth.Logout)
	r.GET("/me", h.Auth.GetMe)

	// Posts and their comment threads
	posts := r.Group("/posts")
	{
		posts.GET("/create", h.Post.NewPost)
		posts.POST("/create", h.Post.CreatePost)
		posts.GET("/:postId", h.Post.GetPost)
		posts.GET("/:postId/edit", h.Post.EditPostForm)
		posts.POST("/:postId/edit", h.Post.UpdatePost)
		posts.POST("/:postId/delete", h.Post.DeletePost)
		posts.POST("/:postId/comment", h.Comment.AddComment)
		posts.GET("/:postId/comment/:commentId/edit", h.Comment.EditCommentForm)
		posts.POST("/:postId/comment/:commentId/edit", h.Comment.UpdateComment)
		posts.POST("/:postId/comment/:commentId/delete", h.Comment.DeleteComment)
	}

	// Categories
	r.GET("/category/:slug", h.Category.GetCategoryPosts)

	// Profiles
	r.GET("/profile/edit", h.User.EditProfileForm)
	r.POST("/profile/edit", h.User.UpdateProfile)
	r.GET("/profile/:username", h.User.GetProfile)

	return r
}
