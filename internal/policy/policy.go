// Package policy holds the visibility and ownership rules as pure
// predicates. Handlers ask for a Decision before touching the store, so
// every route applies the same rules without framework hooks.
package policy

import (
	"fmt"
	"time"

	"github.com/blogicum/backend/internal/models"
)

// LoginURL is where refused anonymous (and non-owner comment) writes are
// sent instead of an error page.
const LoginURL = "/login"

// Decision is the outcome of a guard check. Exactly one branch is set:
// Allowed, a redirect location, or a hidden-as-missing refusal.
type Decision struct {
	Allowed  bool
	Redirect string
	NotFound bool
}

func Allow() Decision                     { return Decision{Allowed: true} }
func RedirectTo(location string) Decision { return Decision{Redirect: location} }
func Hide() Decision                      { return Decision{NotFound: true} }

// PostURL is the canonical detail location for a post.
func PostURL(postID int) string {
	return fmt.Sprintf("/posts/%d", postID)
}

// PostPublic reports whether a post satisfies the public-visibility
// invariant at the given time: published, not scheduled for the future,
// and not filed under an unpublished category. The post's Category must
// already be loaded when CategoryID is set.
func PostPublic(p *models.Post, now time.Time) bool {
	if !p.IsPublished || p.PubDate.After(now) {
		return false
	}
	if p.CategoryID == nil {
		return true
	}
	return p.Category != nil && p.Category.IsPublished
}

// PostVisibleTo reports whether the viewer may see the post. Authors
// always see their own drafts and scheduled posts; everyone else gets the
// public invariant. viewerID 0 means anonymous.
func PostVisibleTo(p *models.Post, viewerID int, now time.Time) bool {
	if viewerID != 0 && viewerID == p.AuthorID {
		return true
	}
	return PostPublic(p, now)
}

// CanViewPost hides invisible posts as missing rather than forbidden, so
// draft existence never leaks to non-owners.
func CanViewPost(p *models.Post, viewerID int, now time.Time) Decision {
	if !PostVisibleTo(p, viewerID, now) {
		return Hide()
	}
	return Allow()
}

// RequireLogin refuses anonymous viewers with a redirect to the login
// prompt.
func RequireLogin(viewerID int) Decision {
	if viewerID == 0 {
		return RedirectTo(LoginURL)
	}
	return Allow()
}

// CanModifyPost gates post update/delete. Non-owners are bounced to the
// post's detail view, never an error page.
func CanModifyPost(p *models.Post, viewerID int) Decision {
	if viewerID == 0 {
		return RedirectTo(LoginURL)
	}
	if viewerID != p.AuthorID {
		return RedirectTo(PostURL(p.ID))
	}
	return Allow()
}

// CanModifyComment gates comment update/delete. Only the comment's own
// author qualifies; the parent post's author gets no special access.
func CanModifyComment(cm *models.Comment, viewerID int) Decision {
	if viewerID == 0 || viewerID != cm.AuthorID {
		return RedirectTo(LoginURL)
	}
	return Allow()
}
