package service

import (
	"context"
	"log"
	"time"

	"stoa/internal/model"
	"stoa/internal/queue"
	"stoa/internal/repository"
)

type LibraryService struct {
	bookRepo     repository.BookRepository
	chapterRepo  repository.ChapterRepository
	activityRepo repository.ActivityRepository
	publisher    queue.Publisher
}

func NewLibraryService(
	bookRepo repository.BookRepository,
	chapterRepo repository.ChapterRepository,
	activityRepo repository.ActivityRepository,
	publisher queue.Publisher,
) *LibraryService {
	return &LibraryService{
		bookRepo:     bookRepo,
		chapterRepo:  chapterRepo,
		activityRepo: activityRepo,
		publisher:    publisher,
	}
}

// AddBook adds a book to the user's library. Duplicates surface as a
// conflict from the repository's unique index.
func (s *LibraryService) AddBook(ctx context.Context, userID string, req model.AddBookRequest) (*model.UserBook, error) {
	if req.PageCount < 0 || req.PageCount > model.MaxPageCount {
		return nil, model.NewValidation("page count must be between 0 and %d", model.MaxPageCount)
	}

	var thumbnail *string
	if req.Thumbnail != "" {
		thumbnail = &req.Thumbnail
	}

	book, err := s.bookRepo.Add(ctx, &model.UserBook{
		UserID:    userID,
		Title:     req.Title,
		Authors:   req.Authors,
		PageCount: req.PageCount,
		Thumbnail: thumbnail,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[LibraryService] AddBook OK: user=%s book=%s", userID, book.ID)
	return book, nil
}

func (s *LibraryService) GetBook(ctx context.Context, bookID, userID string) (*model.UserBook, error) {
	return s.bookRepo.GetByID(ctx, bookID, userID)
}

func (s *LibraryService) ListBooks(ctx context.Context, userID string) ([]model.UserBook, error) {
	return s.bookRepo.ListByUser(ctx, userID)
}

// UpdateProgress moves the reader's bookmark. The requested page is clamped
// to [0, pageCount] rather than rejected, and a positive forward delta is
// published to the activity stream after the write succeeds. Publishing is
// best-effort: a dropped event loses a heatmap increment, never progress.
func (s *LibraryService) UpdateProgress(ctx context.Context, bookID, userID string, req model.UpdateProgressRequest) (*model.UserBook, error) {
	book, err := s.bookRepo.GetByID(ctx, bookID, userID)
	if err != nil {
		return nil, err
	}

	page := req.CurrentPage
	if page < 0 {
		page = 0
	}
	if book.PageCount > 0 && page > book.PageCount {
		page = book.PageCount
	}

	pagesRead := page - book.CurrentPage

	updated, err := s.bookRepo.UpdateCurrentPage(ctx, bookID, userID, page)
	if err != nil {
		return nil, err
	}

	// Only forward movement counts as reading. Jumping back is a correction,
	// not negative activity.
	if pagesRead > 0 && s.publisher != nil {
		event := queue.NewPagesReadEvent(userID, bookID, pagesRead)
		if _, err := s.publisher.Publish(ctx, queue.StreamActivity, event); err != nil {
			log.Printf("[LibraryService] Failed to publish PagesRead event: %v", err)
		}
	}

	log.Printf("[LibraryService] UpdateProgress OK: user=%s book=%s page=%d delta=%d",
		userID, bookID, page, pagesRead)
	return updated, nil
}

// ToggleCompletion flips the finished flag unconditionally; readers may mark
// a book finished at any page and unmark it again.
func (s *LibraryService) ToggleCompletion(ctx context.Context, bookID, userID string) (*model.UserBook, error) {
	book, err := s.bookRepo.GetByID(ctx, bookID, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookRepo.SetCompleted(ctx, bookID, userID, !book.IsCompleted)
	if err != nil {
		return nil, err
	}

	if updated.IsCompleted && s.publisher != nil {
		event := queue.NewBookCompletedEvent(userID, bookID)
		if _, err := s.publisher.Publish(ctx, queue.StreamActivity, event); err != nil {
			log.Printf("[LibraryService] Failed to publish BookCompleted event: %v", err)
		}
	}

	log.Printf("[LibraryService] ToggleCompletion OK: user=%s book=%s completed=%t",
		userID, bookID, updated.IsCompleted)
	return updated, nil
}

func (s *LibraryService) RemoveBook(ctx context.Context, bookID, userID string) error {
	if err := s.bookRepo.Remove(ctx, bookID, userID); err != nil {
		return err
	}
	log.Printf("[LibraryService] RemoveBook OK: user=%s book=%s", userID, bookID)
	return nil
}

// ListChapters returns a book's table of contents, ordered by start page.
func (s *LibraryService) ListChapters(ctx context.Context, bookID string) ([]model.Chapter, error) {
	return s.chapterRepo.ListByBook(ctx, bookID)
}

// SetChapters replaces a book's table of contents. Only the owner may edit
// it; start pages must be non-negative and strictly increasing.
func (s *LibraryService) SetChapters(ctx context.Context, bookID, userID string, chapters []model.Chapter) ([]model.Chapter, error) {
	book, err := s.bookRepo.GetByID(ctx, bookID, userID)
	if err != nil {
		return nil, err
	}

	prev := -1
	for _, ch := range chapters {
		if ch.Title == "" {
			return nil, model.NewValidation("chapter title is required")
		}
		if ch.StartPage < 0 {
			return nil, model.NewValidation("chapter start page must not be negative")
		}
		if ch.StartPage <= prev {
			return nil, model.NewValidation("chapter start pages must be strictly increasing")
		}
		if book.PageCount > 0 && ch.StartPage > book.PageCount {
			return nil, model.NewValidation("chapter start page %d is beyond the book's %d pages", ch.StartPage, book.PageCount)
		}
		prev = ch.StartPage
	}

	if err := s.chapterRepo.Replace(ctx, bookID, chapters); err != nil {
		return nil, err
	}
	log.Printf("[LibraryService] SetChapters OK: user=%s book=%s chapters=%d", userID, bookID, len(chapters))
	return s.chapterRepo.ListByBook(ctx, bookID)
}

// RecentActivity returns the user's daily pages-read totals for the last
// days days, for the reading heatmap.
func (s *LibraryService) RecentActivity(ctx context.Context, userID string, days int) ([]model.ReadingActivity, error) {
	if days <= 0 {
		days = 90
	}
	if days > 366 {
		days = 366
	}
	since := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -days)
	return s.activityRepo.ListRecent(ctx, userID, since)
}
