package feed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/blogicum/backend/internal/database"
	"github.com/blogicum/backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A second pool connection would get its own empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createCategory(t *testing.T, db *gorm.DB, slug string, published bool) models.Category {
	t.Helper()
	category := models.Category{Title: slug, Slug: slug, IsPublished: published}
	require.NoError(t, db.Create(&category).Error)
	return category
}

type postOpts struct {
	author    models.User
	title     string
	pubDate   time.Time
	published bool
	category  *models.Category
}

func createPost(t *testing.T, db *gorm.DB, o postOpts) models.Post {
	t.Helper()
	post := models.Post{
		Title:       o.title,
		Text:        "text",
		PubDate:     o.pubDate,
		IsPublished: o.published,
		AuthorID:    o.author.ID,
	}
	if o.category != nil {
		post.CategoryID = &o.category.ID
	}
	require.NoError(t, db.Create(&post).Error)
	return post
}

func titles(p *Page) []string {
	out := make([]string, 0, len(p.Posts))
	for _, post := range p.Posts {
		out = append(out, post.Title)
	}
	return out
}

func TestIndexFeedExcludesHiddenPosts(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	pub := createCategory(t, db, "travel", true)
	hidden := createCategory(t, db, "secret", false)

	now := time.Now().UTC()
	createPost(t, db, postOpts{author: author, title: "older", pubDate: now.Add(-2 * time.Hour), published: true})
	createPost(t, db, postOpts{author: author, title: "newer", pubDate: now.Add(-time.Hour), published: true, category: &pub})
	createPost(t, db, postOpts{author: author, title: "draft", pubDate: now.Add(-time.Hour), published: false})
	createPost(t, db, postOpts{author: author, title: "scheduled", pubDate: now.Add(time.Hour), published: true})
	createPost(t, db, postOpts{author: author, title: "hidden-category", pubDate: now.Add(-time.Hour), published: true, category: &hidden})

	page, err := engine.Fetch(ctx, Query{PublicOnly: true, Page: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"newer", "older"}, titles(page))
	assert.EqualValues(t, 2, page.TotalPosts)
}

func TestUnpublishedFlagsSurviveInsert(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)

	author := createUser(t, db, "author")
	hidden := createCategory(t, db, "secret", false)
	draft := createPost(t, db, postOpts{
		author: author, title: "draft", pubDate: time.Now().UTC().Add(-time.Hour),
		published: false, category: &hidden,
	})

	// A false flag must round-trip as false; a column default would make
	// the store silently publish drafts and hidden categories.
	var reloadedPost models.Post
	require.NoError(t, db.First(&reloadedPost, draft.ID).Error)
	assert.False(t, reloadedPost.IsPublished)

	var reloadedCategory models.Category
	require.NoError(t, db.First(&reloadedCategory, hidden.ID).Error)
	assert.False(t, reloadedCategory.IsPublished)

	page, err := engine.Fetch(context.Background(), Query{PublicOnly: true, Page: 1})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
}

func TestFeedAnnotatesLiveCommentCount(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	reader := createUser(t, db, "reader")
	post := createPost(t, db, postOpts{author: author, title: "post", pubDate: time.Now().UTC().Add(-time.Hour), published: true})

	require.NoError(t, db.Create(&models.Comment{Text: "first", PostID: post.ID, AuthorID: reader.ID}).Error)

	page, err := engine.Fetch(ctx, Query{PublicOnly: true, Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Posts, 1)
	assert.EqualValues(t, 1, page.Posts[0].CommentCount)

	require.NoError(t, db.Create(&models.Comment{Text: "second", PostID: post.ID, AuthorID: reader.ID}).Error)

	page, err = engine.Fetch(ctx, Query{PublicOnly: true, Page: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Posts[0].CommentCount)
}

func TestCategoryFeedFiltersBySlug(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	travel := createCategory(t, db, "travel", true)
	food := createCategory(t, db, "food", true)

	now := time.Now().UTC()
	createPost(t, db, postOpts{author: author, title: "trip", pubDate: now.Add(-time.Hour), published: true, category: &travel})
	createPost(t, db, postOpts{author: author, title: "recipe", pubDate: now.Add(-time.Hour), published: true, category: &food})
	createPost(t, db, postOpts{author: author, title: "uncategorized", pubDate: now.Add(-time.Hour), published: true})

	page, err := engine.Fetch(ctx, Query{PublicOnly: true, CategorySlug: "travel", Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"trip"}, titles(page))
}

func TestProfileFeedOwnerSeesEverything(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	other := createUser(t, db, "other")

	now := time.Now().UTC()
	createPost(t, db, postOpts{author: author, title: "public", pubDate: now.Add(-time.Hour), published: true})
	createPost(t, db, postOpts{author: author, title: "draft", pubDate: now.Add(-time.Hour), published: false})
	createPost(t, db, postOpts{author: author, title: "scheduled", pubDate: now.Add(time.Hour), published: true})
	createPost(t, db, postOpts{author: other, title: "foreign", pubDate: now.Add(-time.Hour), published: true})

	owner, err := engine.Fetch(ctx, Query{AuthorID: author.ID, Page: 1})
	require.NoError(t, err)
	visitor, err := engine.Fetch(ctx, Query{AuthorID: author.ID, PublicOnly: true, Page: 1})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"public", "draft", "scheduled"}, titles(owner))
	assert.Equal(t, []string{"public"}, titles(visitor))

	// The owner's view is a superset of anyone else's.
	assert.Subset(t, titles(owner), titles(visitor))
}

func TestPaginationClampsOutOfRangePages(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	now := time.Now().UTC()
	for i := 0; i < 13; i++ {
		createPost(t, db, postOpts{
			author:    author,
			title:     fmt.Sprintf("post-%02d", i),
			pubDate:   now.Add(-time.Duration(i+1) * time.Minute),
			published: true,
		})
	}

	first, err := engine.Fetch(ctx, Query{PublicOnly: true, Page: 1})
	require.NoError(t, err)
	assert.Len(t, first.Posts, PageSize)
	assert.Equal(t, 2, first.TotalPages)

	second, err := engine.Fetch(ctx, Query{PublicOnly: true, Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Posts, 3)

	// Past the end clamps to the last page.
	over, err := engine.Fetch(ctx, Query{PublicOnly: true, Page: 99})
	require.NoError(t, err)
	assert.Equal(t, 2, over.Number)
	assert.Equal(t, titles(second), titles(over))

	// Below the start clamps to the first page.
	under, err := engine.Fetch(ctx, Query{PublicOnly: true, Page: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, under.Number)
}

func TestEmptyFeedStillReturnsFirstPage(t *testing.T) {
	db := newTestDB(t)
	engine := NewEngine(db)

	page, err := engine.Fetch(context.Background(), Query{PublicOnly: true, Page: 5})
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 1, page.TotalPages)
}

func TestCategoryDeleteClearsReferenceAuthorDeleteCascades(t *testing.T) {
	db := newTestDB(t)

	author := createUser(t, db, "author")
	reader := createUser(t, db, "reader")
	category := createCategory(t, db, "travel", true)
	post := createPost(t, db, postOpts{
		author: author, title: "trip", pubDate: time.Now().UTC().Add(-time.Hour),
		published: true, category: &category,
	})
	require.NoError(t, db.Create(&models.Comment{Text: "nice", PostID: post.ID, AuthorID: reader.ID}).Error)

	// Deleting the category keeps the post and clears the reference.
	require.NoError(t, db.Delete(&category).Error)
	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, post.ID).Error)
	assert.Nil(t, reloaded.CategoryID)

	// Deleting the author removes the post and its comments.
	require.NoError(t, db.Delete(&author).Error)
	var postCount, commentCount int64
	require.NoError(t, db.Model(&models.Post{}).Where("id = ?", post.ID).Count(&postCount).Error)
	require.NoError(t, db.Model(&models.Comment{}).Where("post_id = ?", post.ID).Count(&commentCount).Error)
	assert.Zero(t, postCount)
	assert.Zero(t, commentCount)
}
