package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"stoa/internal/model"
)

type activityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Record accumulates pagesRead into the daily bucket. Replays of the same
// event are idempotent only at the event level (the queue acks after this
// succeeds), so the upsert adds rather than overwrites.
func (r *activityRepository) Record(ctx context.Context, userID, bookID string, day time.Time, pagesRead int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reading_activity (user_id, book_id, day, pages_read)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, book_id, day)
		DO UPDATE SET pages_read = reading_activity.pages_read + EXCLUDED.pages_read
	`, userID, bookID, day, pagesRead)
	if err != nil {
		return translate(err, "reading activity")
	}
	return nil
}

func (r *activityRepository) ListRecent(ctx context.Context, userID string, since time.Time) ([]model.ReadingActivity, error) {
	activity := []model.ReadingActivity{}
	err := r.db.SelectContext(ctx, &activity, `
		SELECT user_id, book_id, day, pages_read
		FROM reading_activity
		WHERE user_id = $1 AND day >= $2
		ORDER BY day ASC
	`, userID, since)
	if err != nil {
		return nil, translate(err, "reading activity")
	}
	return activity, nil
}
