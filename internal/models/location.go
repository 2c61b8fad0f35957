package models

import "time"

// Location is a geographic tag. Deleting one clears the reference on its
// posts instead of deleting them.
type Location struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
}
