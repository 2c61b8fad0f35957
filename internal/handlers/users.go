package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/blogicum/backend/internal/feed"
	"github.com/blogicum/backend/internal/models"
	"github.com/blogicum/backend/internal/policy"
)

type UserHandler struct {
	db   *gorm.DB
	feed *feed.Engine
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db, feed: feed.NewEngine(db)}
}

var profileFormFields = []string{"first_name", "last_name", "username", "email"}

type profileInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}

// GetProfile returns a user's profile and their post feed. The profile's
// owner sees all of their posts, drafts and scheduled ones included;
// everyone else gets only the publicly visible subset.
func (h *UserHandler) GetProfile(c *gin.Context) {
	var user models.User
	if err := h.db.Where("username = ?", c.Param("username")).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	query := feed.Query{AuthorID: user.ID, Page: parsePage(c)}
	viewer := viewerID(c)
	if viewer != user.ID {
		query.PublicOnly = true
	}

	page, err := h.feed.Fetch(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	profile := gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	}
	if viewer == user.ID {
		profile["email"] = user.Email
	}

	c.JSON(http.StatusOK, gin.H{
		"profile":     profile,
		"posts":       page.Posts,
		"page":        page.Number,
		"total_pages": page.TotalPages,
		"total_posts": page.TotalPosts,
	})
}

// EditProfileForm returns the profile form pre-filled with the viewer's
// current fields (PROTECTED)
func (h *UserHandler) EditProfileForm(c *gin.Context) {
	viewer := viewerID(c)
	if d := policy.RequireLogin(viewer); !d.Allowed {
		apply(c, d)
		return
	}

	var user models.User
	if err := h.db.First(&user, viewer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"form": h.profileForm(&user)})
}

// UpdateProfile updates the viewer's own profile fields (PROTECTED)
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	viewer := viewerID(c)
	if d := policy.RequireLogin(viewer); !d.Allowed {
		apply(c, d)
		return
	}

	var user models.User
	if err := h.db.First(&user, viewer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	var input profileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		form := h.profileForm(&user)
		form.Errors = fieldErrors(err)
		c.JSON(http.StatusBadRequest, gin.H{"form": form})
		return
	}

	// Username and email stay unique across other users.
	var taken int64
	h.db.Model(&models.User{}).
		Where("(username = ? OR email = ?) AND id <> ?", input.Username, input.Email, user.ID).
		Count(&taken)
	if taken > 0 {
		form := h.profileForm(&user)
		form.Errors["username"] = "username or email already exists"
		c.JSON(http.StatusBadRequest, gin.H{"form": form})
		return
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Username = input.Username
	user.Email = input.Email

	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.Redirect(http.StatusFound, "/profile/"+user.Username)
}

func (h *UserHandler) profileForm(user *models.User) Form {
	return newForm(profileFormFields, gin.H{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"username":   user.Username,
		"email":      user.Email,
	})
}
