package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/blogicum/backend/internal/policy"
)

// Form describes a form for the caller to render: its fields, the current
// values, and field-level validation messages.
type Form struct {
	Fields []string          `json:"fields"`
	Values gin.H             `json:"values"`
	Errors map[string]string `json:"errors"`
}

func newForm(fields []string, values gin.H) Form {
	if values == nil {
		values = gin.H{}
	}
	return Form{Fields: fields, Values: values, Errors: map[string]string{}}
}

// fieldErrors flattens binding errors into per-field messages.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[snake(fe.Field())] = "failed on the '" + fe.Tag() + "' rule"
		}
		return out
	}
	out["__all__"] = err.Error()
	return out
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// apply answers a guard decision that refused the request: either a
// redirect to a safe fallback view or a not-found response.
func apply(c *gin.Context, d policy.Decision) {
	switch {
	case d.Redirect != "":
		c.Redirect(http.StatusFound, d.Redirect)
	case d.NotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// viewerID returns the authenticated user's id, or 0 for anonymous.
func viewerID(c *gin.Context) int {
	id, _ := extractUserID(c)
	return id
}

func parsePage(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		return 1
	}
	return page
}
