package model

import "time"

// ReadingActivity is a daily pages-read total for one user and book, the
// source for the reading heatmap. Rows are only ever written by the activity
// worker; forward progress accumulates, backward movement is never recorded.
type ReadingActivity struct {
	UserID    string    `db:"user_id" json:"-"`
	BookID    string    `db:"book_id" json:"book_id"`
	Day       time.Time `db:"day" json:"day"`
	PagesRead int       `db:"pages_read" json:"pages_read"`
}
