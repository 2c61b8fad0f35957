package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blogicum/backend/internal/feed"
	"github.com/blogicum/backend/internal/models"
	"github.com/blogicum/backend/internal/policy"
)

type PostHandler struct {
	db   *gorm.DB
	feed *feed.Engine
}

func NewPostHandler(db *gorm.DB) *PostHandler {
	return &PostHandler{db: db, feed: feed.NewEngine(db)}
}

var postFormFields = []string{"title", "text", "pub_date", "category_id", "location_id", "image", "is_published"}

type postInput struct {
	Title       string    `json:"title" binding:"required"`
	Text        string    `json:"text" binding:"required"`
	PubDate     time.Time `json:"pub_date" binding:"required"`
	CategoryID  *int      `json:"category_id"`
	LocationID  *int      `json:"location_id"`
	Image       string    `json:"image"`
	IsPublished *bool     `json:"is_published"`
}

// postForm builds the form descriptor, pre-filled from an existing post
// when editing.
func postForm(p *models.Post) Form {
	if p == nil {
		return newForm(postFormFields, gin.H{
			"title": "", "text": "", "pub_date": nil,
			"category_id": nil, "location_id": nil,
			"image": "", "is_published": true,
		})
	}
	return newForm(postFormFields, gin.H{
		"title": p.Title, "text": p.Text, "pub_date": p.PubDate,
		"category_id": p.CategoryID, "location_id": p.LocationID,
		"image": p.Image, "is_published": p.IsPublished,
	})
}

// Index returns the public feed, newest first, 10 per page
func (h *PostHandler) Index(c *gin.Context) {
	page, err := h.feed.Fetch(c.Request.Context(), feed.Query{
		PublicOnly: true,
		Page:       parsePage(c),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetPost returns a single post with its comment thread and an empty
// comment form. Posts invisible to the viewer answer 404, never 403.
func (h *PostHandler) GetPost(c *gin.Context) {
	var post models.Post
	err := h.db.Preload("Author").Preload("Category").Preload("Location").
		First(&post, "posts.id = ?", c.Param("postId")).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	if d := policy.CanViewPost(&post, viewerID(c), time.Now().UTC()); !d.Allowed {
		apply(c, d)
		return
	}

	var comments []models.Comment
	err = h.db.Where("post_id = ?", post.ID).Preload("Author").Order("created_at asc").Find(&comments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	var count int64
	if err := h.db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}
	post.CommentCount = count

	c.JSON(http.StatusOK, gin.H{
		"post":         post,
		"comments":     comments,
		"comment_form": newForm([]string{"text"}, gin.H{"text": ""}),
	})
}

// NewPost returns an empty post form (PROTECTED)
func (h *PostHandler) NewPost(c *gin.Context) {
	if d := policy.RequireLogin(viewerID(c)); !d.Allowed {
		apply(c, d)
		return
	}
	c.JSON(http.StatusOK, gin.H{"form": postForm(nil)})
}

// CreatePost creates a new post (PROTECTED). The author is always the
// authenticated viewer; a client-supplied author is ignored.
func (h *PostHandler) CreatePost(c *gin.Context) {
	viewer := viewerID(c)
	if d := policy.RequireLogin(viewer); !d.Allowed {
		apply(c, d)
		return
	}

	var input postInput
	if err := c.ShouldBindJSON(&input); err != nil {
		form := postForm(nil)
		form.Errors = fieldErrors(err)
		c.JSON(http.StatusBadRequest, gin.H{"form": form})
		return
	}

	published := true
	if input.IsPublished != nil {
		published = *input.IsPublished
	}

	post := models.Post{
		Title:       input.Title,
		Text:        input.Text,
		PubDate:     input.PubDate.UTC(),
		IsPublished: published,
		AuthorID:    viewer,
		CategoryID:  input.CategoryID,
		LocationID:  input.LocationID,
		Image:       input.Image,
	}

	if err := h.db.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+h.username(c, viewer))
}

// EditPostForm returns the edit form pre-filled with the post's current
// values (owner only; everyone else bounces to the detail view).
func (h *PostHandler) EditPostForm(c *gin.Context) {
	var post models.Post
	if err := h.db.First(&post, "posts.id = ?", c.Param("postId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	if d := policy.CanModifyPost(&post, viewerID(c)); !d.Allowed {
		apply(c, d)
		return
	}

	c.JSON(http.StatusOK, gin.H{"form": postForm(&post)})
}

// UpdatePost updates an existing post (owner only)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var post models.Post
	if err := h.db.First(&post, "posts.id = ?", c.Param("postId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	if d := policy.CanModifyPost(&post, viewerID(c)); !d.Allowed {
		apply(c, d)
		return
	}

	var input postInput
	if err := c.ShouldBindJSON(&input); err != nil {
		form := postForm(&post)
		form.Errors = fieldErrors(err)
		c.JSON(http.StatusBadRequest, gin.H{"form": form})
		return
	}

	// Only form-supplied mutable fields; author and created_at never change.
	post.Title = input.Title
	post.Text = input.Text
	post.PubDate = input.PubDate.UTC()
	post.CategoryID = input.CategoryID
	post.LocationID = input.LocationID
	post.Image = input.Image
	if input.IsPublished != nil {
		post.IsPublished = *input.IsPublished
	}

	if err := h.db.Save(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	c.Redirect(http.StatusFound, policy.PostURL(post.ID))
}

// DeletePost deletes a post and its comments (owner only)
func (h *PostHandler) DeletePost(c *gin.Context) {
	var post models.Post
	if err := h.db.First(&post, "posts.id = ?", c.Param("postId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	if d := policy.CanModifyPost(&post, viewerID(c)); !d.Allowed {
		apply(c, d)
		return
	}

	// Comments go first so the cascade holds on stores without enforced
	// foreign keys.
	h.db.Where("post_id = ?", post.ID).Delete(&models.Comment{})

	if err := h.db.Delete(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *PostHandler) username(c *gin.Context, viewer int) string {
	if username := c.GetString("username"); username != "" {
		return username
	}
	var user models.User
	if err := h.db.First(&user, viewer).Error; err == nil {
		return user.Username
	}
	return ""
}
