package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"stoa/internal/cache"
	"stoa/internal/model"
	"stoa/internal/repository"
	"stoa/internal/visibility"
)

type DiscussionService struct {
	discussionRepo repository.DiscussionRepository
	bookRepo       repository.BookRepository
	chapterRepo    repository.ChapterRepository
	threadCache    cache.DiscussionCache
}

func NewDiscussionService(
	discussionRepo repository.DiscussionRepository,
	bookRepo repository.BookRepository,
	chapterRepo repository.ChapterRepository,
	threadCache cache.DiscussionCache,
) *DiscussionService {
	return &DiscussionService{
		discussionRepo: discussionRepo,
		bookRepo:       bookRepo,
		chapterRepo:    chapterRepo,
		threadCache:    threadCache,
	}
}

// validateText normalizes and validates comment text. All validation happens
// before any store write so a rejected comment has no side effects.
func validateText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", model.NewValidation("comment text is required")
	}
	if utf8.RuneCountInString(trimmed) > model.MaxCommentLength {
		return "", model.NewValidation("comment text exceeds %d characters", model.MaxCommentLength)
	}
	return trimmed, nil
}

// Create posts a comment anchored to a page of a book.
func (s *DiscussionService) Create(ctx context.Context, bookID, userID string, req model.CreateCommentRequest) (*model.Comment, error) {
	text, err := validateText(req.Text)
	if err != nil {
		return nil, err
	}
	if req.Page < 0 {
		return nil, model.NewValidation("page must not be negative")
	}

	// The anchor must exist within the book being discussed.
	pageCount, err := s.bookRepo.GetPageCount(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if pageCount > 0 && req.Page > pageCount {
		return nil, model.NewValidation("page %d is beyond the book's %d pages", req.Page, pageCount)
	}

	comment, err := s.discussionRepo.Create(ctx, &model.Comment{
		BookID:    bookID,
		UserID:    userID,
		ChapterID: req.ChapterID,
		Text:      text,
		Page:      req.Page,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, bookID)
	log.Printf("[DiscussionService] Create OK: book=%s user=%s page=%d", bookID, userID, req.Page)
	return comment, nil
}

// Update edits a comment's text. Ownership is enforced by the repository.
func (s *DiscussionService) Update(ctx context.Context, commentID, userID string, req model.UpdateCommentRequest) (*model.Comment, error) {
	text, err := validateText(req.Text)
	if err != nil {
		return nil, err
	}

	comment, err := s.discussionRepo.Update(ctx, commentID, userID, text)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, comment.BookID)
	log.Printf("[DiscussionService] Update OK: comment=%s user=%s", commentID, userID)
	return comment, nil
}

// Delete removes a comment. Ownership is enforced by the repository.
func (s *DiscussionService) Delete(ctx context.Context, commentID, userID string) error {
	comment, err := s.discussionRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if err := s.discussionRepo.Delete(ctx, commentID, userID); err != nil {
		return err
	}

	s.invalidate(ctx, comment.BookID)
	log.Printf("[DiscussionService] Delete OK: comment=%s user=%s", commentID, userID)
	return nil
}

// Thread returns the spoiler-filtered discussion for a book: comments
// anchored at or before currentPage, plus a count of what was held back.
// The full list is served read-through from the cache; filtering happens
// after the read so one cached list serves readers at any page.
func (s *DiscussionService) Thread(ctx context.Context, bookID string, currentPage int) (*model.Thread, error) {
	comments, err := s.fullThread(ctx, bookID)
	if err != nil {
		return nil, err
	}

	visible, hidden := visibility.ByPage(comments, currentPage)
	return &model.Thread{Comments: visible, HiddenCount: hidden}, nil
}

// ChapterThread returns the discussion scoped to one chapter's page range.
// Chapter scope ignores the reader's progress; selecting a chapter shows its
// whole conversation.
func (s *DiscussionService) ChapterThread(ctx context.Context, bookID, chapterID string) ([]model.Comment, error) {
	chapters, err := s.chapterRepo.ListByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if _, _, _, ok := visibility.ChapterRange(chapters, chapterID); !ok {
		return nil, model.NewNotFound("chapter")
	}

	comments, err := s.fullThread(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return visibility.ByChapter(comments, chapters, chapterID), nil
}

// Count returns the total number of comments on a book, unfiltered.
func (s *DiscussionService) Count(ctx context.Context, bookID string) (int, error) {
	if s.threadCache != nil {
		count, found, err := s.threadCache.GetCount(ctx, bookID)
		if err == nil && found {
			return count, nil
		}
	}

	count, err := s.discussionRepo.CountByBook(ctx, bookID)
	if err != nil {
		return 0, err
	}
	if s.threadCache != nil {
		if err := s.threadCache.SetCount(ctx, bookID, count); err != nil {
			log.Printf("[DiscussionService] cache count failed: book=%s err=%v", bookID, err)
		}
	}
	return count, nil
}

// ListByUser returns the user's own comments across all books.
func (s *DiscussionService) ListByUser(ctx context.Context, userID string, limit int) ([]model.Comment, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.discussionRepo.ListByUser(ctx, userID, limit)
}

// fullThread loads a book's complete comment list, read-through cached.
// A cache failure falls back to the store; the thread must stay readable
// when Redis is down.
func (s *DiscussionService) fullThread(ctx context.Context, bookID string) ([]model.Comment, error) {
	if s.threadCache != nil {
		comments, found, err := s.threadCache.GetThread(ctx, bookID)
		if err == nil && found {
			return comments, nil
		}
	}

	comments, err := s.discussionRepo.ListByBook(ctx, bookID, repository.ListDiscussionsOptions{})
	if err != nil {
		return nil, fmt.Errorf("load thread: %w", err)
	}

	if s.threadCache != nil {
		if err := s.threadCache.SetThread(ctx, bookID, comments); err != nil {
			log.Printf("[DiscussionService] cache thread failed: book=%s err=%v", bookID, err)
		}
	}
	return comments, nil
}

func (s *DiscussionService) invalidate(ctx context.Context, bookID string) {
	if s.threadCache == nil {
		return
	}
	if err := s.threadCache.Invalidate(ctx, bookID); err != nil {
		log.Printf("[DiscussionService] invalidate failed: book=%s err=%v", bookID, err)
	}
}
