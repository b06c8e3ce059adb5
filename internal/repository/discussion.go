package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"stoa/internal/model"
)

type discussionRepository struct {
	db *sqlx.DB
}

func NewDiscussionRepository(db *sqlx.DB) DiscussionRepository {
	return &discussionRepository{db: db}
}

const commentColumns = `
	c.id, c.book_id, c.user_id, c.chapter_id, c.content, c.page_number, c.created_at,
	u.username AS author, u.country_flag, u.is_verified
`

// Create inserts a comment and returns it with the author profile joined,
// so the caller gets the same shape a listing would return.
func (r *discussionRepository) Create(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	var id string
	err := r.db.GetContext(ctx, &id, `
		INSERT INTO comments (book_id, user_id, chapter_id, content, page_number)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, comment.BookID, comment.UserID, comment.ChapterID, comment.Text, comment.Page)
	if err != nil {
		return nil, translate(err, "comment")
	}
	return r.GetByID(ctx, id)
}

// Update edits a comment's text. Only the owner's row matches; when no row
// matches, an existence probe decides between not-found and not-owner.
func (r *discussionRepository) Update(ctx context.Context, commentID, userID, text string) (*model.Comment, error) {
	var id string
	err := r.db.GetContext(ctx, &id, `
		UPDATE comments
		SET content = $1
		WHERE id = $2 AND user_id = $3
		RETURNING id
	`, text, commentID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID)
		if exists {
			return nil, model.NewForbidden("you can only edit your own comments")
		}
		return nil, model.NewNotFound("comment")
	}
	if err != nil {
		return nil, translate(err, "comment")
	}
	return r.GetByID(ctx, id)
}

// Delete removes a comment, with the same ownership probe as Update.
func (r *discussionRepository) Delete(ctx context.Context, commentID, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM comments WHERE id = $1 AND user_id = $2
	`, commentID, userID)
	if err != nil {
		return translate(err, "comment")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return translate(err, "comment")
	}
	if affected == 0 {
		var exists bool
		r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)`, commentID)
		if exists {
			return model.NewForbidden("you can only delete your own comments")
		}
		return model.NewNotFound("comment")
	}
	return nil
}

func (r *discussionRepository) GetByID(ctx context.Context, commentID string) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.GetContext(ctx, &comment, fmt.Sprintf(`
		SELECT %s
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.id = $1
	`, commentColumns), commentID)
	if err != nil {
		return nil, translate(err, "comment")
	}
	return &comment, nil
}

// ListByBook returns a book's comments newest-first. The spoiler boundary and
// chapter scope are applied in SQL when set, so a filtered request never
// transfers rows the caller may not see.
func (r *discussionRepository) ListByBook(ctx context.Context, bookID string, opts ListDiscussionsOptions) ([]model.Comment, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.book_id = $1
	`, commentColumns)
	args := []interface{}{bookID}

	if opts.MaxPage != nil {
		args = append(args, *opts.MaxPage)
		query += fmt.Sprintf(" AND c.page_number <= $%d", len(args))
	}
	if opts.ChapterID != nil {
		args = append(args, *opts.ChapterID)
		query += fmt.Sprintf(" AND c.chapter_id = $%d", len(args))
	}

	query += " ORDER BY c.created_at DESC, c.id DESC"
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	comments := []model.Comment{}
	if err := r.db.SelectContext(ctx, &comments, query, args...); err != nil {
		return nil, translate(err, "comments")
	}
	return comments, nil
}

// ListByUser returns a user's own comments across all books, newest-first.
func (r *discussionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]model.Comment, error) {
	comments := []model.Comment{}
	err := r.db.SelectContext(ctx, &comments, fmt.Sprintf(`
		SELECT %s
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $2
	`, commentColumns), userID, limit)
	if err != nil {
		return nil, translate(err, "comments")
	}
	return comments, nil
}

func (r *discussionRepository) CountByBook(ctx context.Context, bookID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM comments WHERE book_id = $1`, bookID)
	if err != nil {
		return 0, translate(err, "comments")
	}
	return count, nil
}
