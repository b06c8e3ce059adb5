package model

import "time"

// UserBook is a book in a user's library together with their reading
// progress. One row per (user, book); the row is the sole authority for how
// far the reader has gotten.
type UserBook struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"-"`
	Title       string    `db:"book_title" json:"title"`
	Authors     string    `db:"authors" json:"authors"`
	PageCount   int       `db:"page_count" json:"page_count"`
	Thumbnail   *string   `db:"thumbnail" json:"thumbnail,omitempty"`
	CurrentPage int       `db:"current_page" json:"current_page"`
	IsCompleted bool      `db:"is_completed" json:"is_completed"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// AddBookRequest is the request body for adding a book to the library.
type AddBookRequest struct {
	Title     string `json:"title" validate:"required,max=500"`
	Authors   string `json:"authors" validate:"max=500"`
	PageCount int    `json:"page_count" validate:"min=0,max=50000"`
	Thumbnail string `json:"thumbnail" validate:"omitempty,url"`
}

// UpdateProgressRequest is the request body for a progress update.
// The page is clamped server-side; validation only rejects garbage.
type UpdateProgressRequest struct {
	CurrentPage int `json:"current_page"`
}

// BookSearchResult is a hit from the external book-metadata APIs.
type BookSearchResult struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	PageCount int      `json:"page_count"`
	Thumbnail string   `json:"thumbnail"`
	ISBN      string   `json:"isbn,omitempty"`
	Publisher string   `json:"publisher,omitempty"`
}

// Book constraints
const (
	MaxPageCount = 50000
)
