package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blogicum/backend/internal/models"
	"github.com/blogicum/backend/internal/policy"
)

type CommentHandler struct {
	db *gorm.DB
}

func NewCommentHandler(db *gorm.DB) *CommentHandler {
	return &CommentHandler{db: db}
}

func (h *CommentHandler) loadComment(c *gin.Context) (models.Comment, bool) {
	var comment models.Comment
	err := h.db.Where("id = ? AND post_id = ?", c.Param("commentId"), c.Param("postId")).
		First(&comment).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return comment, false
	}
	return comment, true
}

// AddComment adds a comment to a post (PROTECTED). The response is always
// a redirect back to the post's thread; invalid input persists nothing.
func (h *CommentHandler) AddComment(c *gin.Context) {
	viewer := viewerID(c)
	if d := policy.RequireLogin(viewer); !d.Allowed {
		apply(c, d)
		return
	}

	var post models.Post
	if err := h.db.First(&post, "posts.id = ?", c.Param("postId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.Redirect(http.StatusFound, policy.PostURL(post.ID))
		return
	}

	comment := models.Comment{
		Text:     input.Text,
		PostID:   post.ID,
		AuthorID: viewer,
	}
	if err := h.db.Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	c.Redirect(http.StatusFound, policy.PostURL(post.ID))
}

// EditCommentForm returns the edit form with the comment's current text
// (comment owner only; everyone else bounces to the login prompt).
func (h *CommentHandler) EditCommentForm(c *gin.Context) {
	comment, ok := h.loadComment(c)
	if !ok {
		return
	}

	if d := policy.CanModifyComment(&comment, viewerID(c)); !d.Allowed {
		apply(c, d)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comment": comment,
		"form":    newForm([]string{"text"}, gin.H{"text": comment.Text}),
	})
}

// UpdateComment updates a comment (comment owner only)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	comment, ok := h.loadComment(c)
	if !ok {
		return
	}

	if d := policy.CanModifyComment(&comment, viewerID(c)); !d.Allowed {
		apply(c, d)
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		form := newForm([]string{"text"}, gin.H{"text": comment.Text})
		form.Errors = fieldErrors(err)
		c.JSON(http.StatusBadRequest, gin.H{"form": form})
		return
	}

	comment.Text = input.Text
	if err := h.db.Save(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}

	c.Redirect(http.StatusFound, policy.PostURL(comment.PostID))
}

// DeleteComment deletes a comment (comment owner only)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	comment, ok := h.loadComment(c)
	if !ok {
		return
	}

	if d := policy.CanModifyComment(&comment, viewerID(c)); !d.Allowed {
		apply(c, d)
		return
	}

	if err := h.db.Delete(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	c.Redirect(http.StatusFound, policy.PostURL(comment.PostID))
}
