package model

import "time"

// Comment is a page-anchored discussion entry on a book.
// Author fields are joined from the profiles table on read.
type Comment struct {
	ID          string    `db:"id" json:"id"`
	BookID      string    `db:"book_id" json:"book_id"`
	UserID      string    `db:"user_id" json:"-"`
	ChapterID   *string   `db:"chapter_id" json:"chapter_id,omitempty"`
	Text        string    `db:"content" json:"text"`
	Page        int       `db:"page_number" json:"page"`
	Author      string    `db:"author" json:"author"`
	CountryFlag *string   `db:"country_flag" json:"country_flag,omitempty"`
	IsVerified  bool      `db:"is_verified" json:"is_verified"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CreateCommentRequest is the request body for posting a comment.
type CreateCommentRequest struct {
	Text      string  `json:"text" validate:"required"`
	Page      int     `json:"page" validate:"min=0"`
	ChapterID *string `json:"chapter_id,omitempty" validate:"omitempty,uuid"`
}

// UpdateCommentRequest is the request body for editing a comment.
type UpdateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// Thread is a spoiler-filtered view of a book's discussion.
type Thread struct {
	Comments    []Comment `json:"comments"`
	HiddenCount int       `json:"hidden_count"`
}

// Comment constraints
const (
	MaxCommentLength = 2000
)
