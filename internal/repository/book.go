package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"stoa/internal/model"
)

type bookRepository struct {
	db *sqlx.DB
}

func NewBookRepository(db *sqlx.DB) BookRepository {
	return &bookRepository{db: db}
}

const bookColumns = `id, user_id, book_title, authors, page_count, thumbnail, current_page, is_completed, created_at`

// Add inserts a book into the user's library. A duplicate (user, title,
// authors) combination surfaces as a conflict via the unique index.
func (r *bookRepository) Add(ctx context.Context, book *model.UserBook) (*model.UserBook, error) {
	var created model.UserBook
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO user_books (user_id, book_title, authors, page_count, thumbnail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+bookColumns+`
	`, book.UserID, book.Title, book.Authors, book.PageCount, book.Thumbnail)
	if err != nil {
		return nil, translate(err, "book")
	}
	return &created, nil
}

// GetByID fetches one library row scoped to its owner. Another user's book
// is indistinguishable from a missing one.
func (r *bookRepository) GetByID(ctx context.Context, bookID, userID string) (*model.UserBook, error) {
	var book model.UserBook
	err := r.db.GetContext(ctx, &book, `
		SELECT `+bookColumns+` FROM user_books WHERE id = $1 AND user_id = $2
	`, bookID, userID)
	if err != nil {
		return nil, translate(err, "book")
	}
	return &book, nil
}

// GetPageCount returns the total pages of a book regardless of owner. Used
// to validate comment page anchors against the book being discussed.
func (r *bookRepository) GetPageCount(ctx context.Context, bookID string) (int, error) {
	var pageCount int
	err := r.db.GetContext(ctx, &pageCount, `SELECT page_count FROM user_books WHERE id = $1`, bookID)
	if err != nil {
		return 0, translate(err, "book")
	}
	return pageCount, nil
}

func (r *bookRepository) ListByUser(ctx context.Context, userID string) ([]model.UserBook, error) {
	books := []model.UserBook{}
	err := r.db.SelectContext(ctx, &books, `
		SELECT `+bookColumns+` FROM user_books WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, translate(err, "books")
	}
	return books, nil
}

// UpdateCurrentPage persists a progress update. The page must already be
// clamped by the service; the repository stores what it is given.
func (r *bookRepository) UpdateCurrentPage(ctx context.Context, bookID, userID string, page int) (*model.UserBook, error) {
	var book model.UserBook
	err := r.db.GetContext(ctx, &book, `
		UPDATE user_books
		SET current_page = $1
		WHERE id = $2 AND user_id = $3
		RETURNING `+bookColumns+`
	`, page, bookID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.ownershipError(ctx, bookID)
	}
	if err != nil {
		return nil, translate(err, "book")
	}
	return &book, nil
}

func (r *bookRepository) SetCompleted(ctx context.Context, bookID, userID string, completed bool) (*model.UserBook, error) {
	var book model.UserBook
	err := r.db.GetContext(ctx, &book, `
		UPDATE user_books
		SET is_completed = $1
		WHERE id = $2 AND user_id = $3
		RETURNING `+bookColumns+`
	`, completed, bookID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.ownershipError(ctx, bookID)
	}
	if err != nil {
		return nil, translate(err, "book")
	}
	return &book, nil
}

func (r *bookRepository) Remove(ctx context.Context, bookID, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM user_books WHERE id = $1 AND user_id = $2
	`, bookID, userID)
	if err != nil {
		return translate(err, "book")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return translate(err, "book")
	}
	if affected == 0 {
		return r.ownershipError(ctx, bookID)
	}
	return nil
}

// ownershipError decides between not-found and not-owner after a write
// matched zero rows.
func (r *bookRepository) ownershipError(ctx context.Context, bookID string) error {
	var exists bool
	r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM user_books WHERE id = $1)`, bookID)
	if exists {
		return model.NewForbidden("book belongs to another user")
	}
	return model.NewNotFound("book")
}
