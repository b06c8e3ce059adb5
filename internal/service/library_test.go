package service

import (
	"context"
	"errors"
	"testing"

	"stoa/internal/model"
	"stoa/internal/queue"
)

type mockPublisher struct {
	events     []queue.ActivityEvent
	publishErr error
}

func (m *mockPublisher) Publish(ctx context.Context, stream string, event queue.ActivityEvent) (string, error) {
	if m.publishErr != nil {
		return "", m.publishErr
	}
	m.events = append(m.events, event)
	return "1-0", nil
}

func newLibraryBookRepo(book *model.UserBook) *mockBookRepository {
	return &mockBookRepository{
		getByIDFn: func(ctx context.Context, bookID, userID string) (*model.UserBook, error) {
			copied := *book
			return &copied, nil
		},
		updatePageFn: func(ctx context.Context, bookID, userID string, page int) (*model.UserBook, error) {
			updated := *book
			updated.CurrentPage = page
			return &updated, nil
		},
		setCompletedFn: func(ctx context.Context, bookID, userID string, completed bool) (*model.UserBook, error) {
			updated := *book
			updated.IsCompleted = completed
			book.IsCompleted = completed
			return &updated, nil
		},
	}
}

func TestLibraryService_UpdateProgress_ClampsPage(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		wantPage  int
	}{
		{name: "negative clamps to zero", requested: -5, wantPage: 0},
		{name: "beyond page count clamps to last page", requested: 500, wantPage: 100},
		{name: "in range passes through", requested: 42, wantPage: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookRepo := newLibraryBookRepo(&model.UserBook{ID: "book-1", PageCount: 100, CurrentPage: 10})
			svc := NewLibraryService(bookRepo, &mockChapterRepository{}, nil, nil)

			updated, err := svc.UpdateProgress(context.Background(), "book-1", "user-1", model.UpdateProgressRequest{
				CurrentPage: tt.requested,
			})
			if err != nil {
				t.Fatalf("UpdateProgress: %v", err)
			}
			if updated.CurrentPage != tt.wantPage {
				t.Errorf("current page = %d, want %d", updated.CurrentPage, tt.wantPage)
			}
			if len(bookRepo.updatePageCalls) != 1 || bookRepo.updatePageCalls[0] != tt.wantPage {
				t.Errorf("store written with %v, want [%d]", bookRepo.updatePageCalls, tt.wantPage)
			}
		})
	}
}

func TestLibraryService_UpdateProgress_PublishesForwardDeltaOnly(t *testing.T) {
	bookRepo := newLibraryBookRepo(&model.UserBook{ID: "book-1", PageCount: 300, CurrentPage: 50})
	publisher := &mockPublisher{}
	svc := NewLibraryService(bookRepo, &mockChapterRepository{}, nil, publisher)

	// Forward move publishes the delta.
	if _, err := svc.UpdateProgress(context.Background(), "book-1", "user-1", model.UpdateProgressRequest{CurrentPage: 80}); err != nil {
		t.Fatalf("forward update: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("events = %d, want 1", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Type != queue.EventPagesRead {
		t.Errorf("event type = %q, want %q", event.Type, queue.EventPagesRead)
	}
	if event.PagesRead != 30 {
		t.Errorf("pages read = %d, want 30", event.PagesRead)
	}

	// Jumping back is a correction, not negative activity.
	if _, err := svc.UpdateProgress(context.Background(), "book-1", "user-1", model.UpdateProgressRequest{CurrentPage: 20}); err != nil {
		t.Fatalf("backward update: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Errorf("backward move published an event")
	}

	// Re-reporting the same page publishes nothing either.
	if _, err := svc.UpdateProgress(context.Background(), "book-1", "user-1", model.UpdateProgressRequest{CurrentPage: 50}); err != nil {
		t.Fatalf("same-page update: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Errorf("zero delta published an event")
	}
}

func TestLibraryService_UpdateProgress_PublishFailureIsBestEffort(t *testing.T) {
	bookRepo := newLibraryBookRepo(&model.UserBook{ID: "book-1", PageCount: 300, CurrentPage: 10})
	publisher := &mockPublisher{publishErr: errors.New("stream down")}
	svc := NewLibraryService(bookRepo, &mockChapterRepository{}, nil, publisher)

	updated, err := svc.UpdateProgress(context.Background(), "book-1", "user-1", model.UpdateProgressRequest{CurrentPage: 40})
	if err != nil {
		t.Fatalf("progress update failed on publish error: %v", err)
	}
	if updated.CurrentPage != 40 {
		t.Errorf("current page = %d, want 40", updated.CurrentPage)
	}
}

func TestLibraryService_ToggleCompletion_Flips(t *testing.T) {
	book := &model.UserBook{ID: "book-1", PageCount: 300, CurrentPage: 120}
	bookRepo := newLibraryBookRepo(book)
	publisher := &mockPublisher{}
	svc := NewLibraryService(bookRepo, &mockChapterRepository{}, nil, publisher)

	updated, err := svc.ToggleCompletion(context.Background(), "book-1", "user-1")
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !updated.IsCompleted {
		t.Fatal("first toggle did not complete the book")
	}
	if len(publisher.events) != 1 || publisher.events[0].Type != queue.EventBookCompleted {
		t.Fatalf("completion event not published: %+v", publisher.events)
	}

	updated, err = svc.ToggleCompletion(context.Background(), "book-1", "user-1")
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if updated.IsCompleted {
		t.Fatal("second toggle did not unmark the book")
	}
	// Un-completing is not an achievement; no event.
	if len(publisher.events) != 1 {
		t.Errorf("uncomplete published an event")
	}
}

func TestLibraryService_AddBook_RejectsPageCount(t *testing.T) {
	svc := NewLibraryService(&mockBookRepository{}, &mockChapterRepository{}, nil, nil)

	_, err := svc.AddBook(context.Background(), "user-1", model.AddBookRequest{
		Title:     "War and More War",
		PageCount: model.MaxPageCount + 1,
	})
	if model.KindOf(err) != model.KindValidation {
		t.Fatalf("error kind = %v, want validation", model.KindOf(err))
	}
}

func TestLibraryService_SetChapters_Validation(t *testing.T) {
	tests := []struct {
		name     string
		chapters []model.Chapter
		wantErr  bool
	}{
		{
			name: "valid strictly increasing",
			chapters: []model.Chapter{
				{Title: "I", StartPage: 1},
				{Title: "II", StartPage: 40},
				{Title: "III", StartPage: 90},
			},
		},
		{
			name: "missing title",
			chapters: []model.Chapter{
				{Title: "", StartPage: 1},
			},
			wantErr: true,
		},
		{
			name: "negative start page",
			chapters: []model.Chapter{
				{Title: "I", StartPage: -1},
			},
			wantErr: true,
		},
		{
			name: "equal start pages",
			chapters: []model.Chapter{
				{Title: "I", StartPage: 10},
				{Title: "II", StartPage: 10},
			},
			wantErr: true,
		},
		{
			name: "out of order",
			chapters: []model.Chapter{
				{Title: "I", StartPage: 40},
				{Title: "II", StartPage: 10},
			},
			wantErr: true,
		},
		{
			name: "beyond page count",
			chapters: []model.Chapter{
				{Title: "I", StartPage: 150},
			},
			wantErr: true,
		},
		{
			name:     "empty list clears the table of contents",
			chapters: []model.Chapter{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookRepo := newLibraryBookRepo(&model.UserBook{ID: "book-1", PageCount: 100})
			chapterRepo := &mockChapterRepository{}
			svc := NewLibraryService(bookRepo, chapterRepo, nil, nil)

			_, err := svc.SetChapters(context.Background(), "book-1", "user-1", tt.chapters)
			if tt.wantErr {
				if model.KindOf(err) != model.KindValidation {
					t.Fatalf("error kind = %v, want validation", model.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("SetChapters: %v", err)
			}
			if len(chapterRepo.chapters) != len(tt.chapters) {
				t.Errorf("stored %d chapters, want %d", len(chapterRepo.chapters), len(tt.chapters))
			}
		})
	}
}

func TestLibraryService_SetChapters_RequiresOwnership(t *testing.T) {
	bookRepo := &mockBookRepository{
		getByIDFn: func(ctx context.Context, bookID, userID string) (*model.UserBook, error) {
			return nil, model.NewForbidden("book belongs to another user")
		},
	}
	chapterRepo := &mockChapterRepository{}
	svc := NewLibraryService(bookRepo, chapterRepo, nil, nil)

	_, err := svc.SetChapters(context.Background(), "book-1", "intruder", []model.Chapter{{Title: "I", StartPage: 1}})
	if model.KindOf(err) != model.KindForbidden {
		t.Fatalf("error kind = %v, want forbidden", model.KindOf(err))
	}
	if len(chapterRepo.chapters) != 0 {
		t.Error("chapters replaced despite ownership failure")
	}
}
