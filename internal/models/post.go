package models

import "time"

type Post struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Text        string    `gorm:"not null" json:"text"`
	PubDate     time.Time `gorm:"not null;index" json:"pub_date"`
	// No column default here: with one, GORM drops a false value from the
	// INSERT and the store would flip drafts to published.
	IsPublished bool `gorm:"not null" json:"is_published"`
	AuthorID    int       `gorm:"not null" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	CategoryID  *int      `json:"category_id,omitempty"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	LocationID  *int      `json:"location_id,omitempty"`
	Location    *Location `gorm:"foreignKey:LocationID;constraint:OnDelete:SET NULL" json:"location,omitempty"`
	Image       string    `json:"image,omitempty"`

	// Filled by the feed pipeline as a live subquery, never stored.
	CommentCount int64 `gorm:"->;-:migration" json:"comment_count"`

	CreatedAt time.Time `json:"created_at"`
}
