package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"stoa/internal/model"
)

type chapterRepository struct {
	db *sqlx.DB
}

func NewChapterRepository(db *sqlx.DB) ChapterRepository {
	return &chapterRepository{db: db}
}

// ListByBook returns a book's chapters ordered by start page ascending,
// the order the chapter-scope math depends on.
func (r *chapterRepository) ListByBook(ctx context.Context, bookID string) ([]model.Chapter, error) {
	chapters := []model.Chapter{}
	err := r.db.SelectContext(ctx, &chapters, `
		SELECT id, book_id, title, start_page
		FROM chapters
		WHERE book_id = $1
		ORDER BY start_page ASC
	`, bookID)
	if err != nil {
		return nil, translate(err, "chapters")
	}
	return chapters, nil
}

// Replace swaps a book's chapter list atomically. Used when the owner edits
// the table of contents; comments keep their chapter_id references only if
// the new list reuses the same IDs.
func (r *chapterRepository) Replace(ctx context.Context, bookID string, chapters []model.Chapter) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return translate(err, "chapters")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chapters WHERE book_id = $1`, bookID); err != nil {
		return translate(err, "chapters")
	}
	for _, ch := range chapters {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chapters (book_id, title, start_page)
			VALUES ($1, $2, $3)
		`, bookID, ch.Title, ch.StartPage)
		if err != nil {
			return translate(err, "chapters")
		}
	}
	if err := tx.Commit(); err != nil {
		return translate(err, "chapters")
	}
	return nil
}
