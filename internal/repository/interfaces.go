package repository

import (
	"context"
	"time"

	"stoa/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// ListDiscussionsOptions narrows a discussion listing. A nil MaxPage returns
// the unfiltered thread; a non-nil MaxPage applies the spoiler boundary
// (page_number <= *MaxPage) in SQL. ChapterID scopes to one chapter's rows.
type ListDiscussionsOptions struct {
	MaxPage   *int
	ChapterID *string
	Limit     int
	Offset    int
}

type DiscussionRepository interface {
	Create(ctx context.Context, comment *model.Comment) (*model.Comment, error)
	Update(ctx context.Context, commentID, userID, text string) (*model.Comment, error)
	Delete(ctx context.Context, commentID, userID string) error
	GetByID(ctx context.Context, commentID string) (*model.Comment, error)
	ListByBook(ctx context.Context, bookID string, opts ListDiscussionsOptions) ([]model.Comment, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Comment, error)
	CountByBook(ctx context.Context, bookID string) (int, error)
}

type BookRepository interface {
	Add(ctx context.Context, book *model.UserBook) (*model.UserBook, error)
	GetByID(ctx context.Context, bookID, userID string) (*model.UserBook, error)
	GetPageCount(ctx context.Context, bookID string) (int, error)
	ListByUser(ctx context.Context, userID string) ([]model.UserBook, error)
	UpdateCurrentPage(ctx context.Context, bookID, userID string, page int) (*model.UserBook, error)
	SetCompleted(ctx context.Context, bookID, userID string, completed bool) (*model.UserBook, error)
	Remove(ctx context.Context, bookID, userID string) error
}

type ChapterRepository interface {
	ListByBook(ctx context.Context, bookID string) ([]model.Chapter, error)
	Replace(ctx context.Context, bookID string, chapters []model.Chapter) error
}

type ActivityRepository interface {
	// Record adds pagesRead to the (user, book, day) bucket, creating it on
	// first write. pagesRead must already be a positive forward delta.
	Record(ctx context.Context, userID, bookID string, day time.Time, pagesRead int) error
	ListRecent(ctx context.Context, userID string, since time.Time) ([]model.ReadingActivity, error)
}
