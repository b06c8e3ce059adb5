package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"stoa/internal/httputil"
	"stoa/internal/model"
	"stoa/internal/service"
	"stoa/internal/transport/http/middleware"
)

type DiscussionHandler struct {
	discussionService *service.DiscussionService
}

func NewDiscussionHandler(discussionService *service.DiscussionService) *DiscussionHandler {
	return &DiscussionHandler{
		discussionService: discussionService,
	}
}

// Create handles POST /books/:id/comments
// Posts a page-anchored comment on a book's discussion.
func (h *DiscussionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	bookID := chi.URLParam(r, "id")

	var req model.CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, validationMessage(err))
		return
	}

	comment, err := h.discussionService.Create(r.Context(), bookID, userID, req)
	if err != nil {
		if model.KindOf(err) == model.KindUnknown {
			log.Printf("[ERROR] Create comment handler: user=%s book=%s err=%v", userID, bookID, err)
		}
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, comment)
}

// Update handles PATCH /comments/:commentId
// Edits a comment's text (only the owner can edit).
func (h *DiscussionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID := chi.URLParam(r, "commentId")

	var req model.UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, validationMessage(err))
		return
	}

	comment, err := h.discussionService.Update(r.Context(), commentID, userID, req)
	if err != nil {
		if model.KindOf(err) == model.KindUnknown {
			log.Printf("[ERROR] Update comment handler: user=%s comment=%s err=%v", userID, commentID, err)
		}
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comment)
}

// Delete handles DELETE /comments/:commentId
// Removes a comment (only the owner can delete).
func (h *DiscussionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID := chi.URLParam(r, "commentId")

	if err := h.discussionService.Delete(r.Context(), commentID, userID); err != nil {
		if model.KindOf(err) == model.KindUnknown {
			log.Printf("[ERROR] Delete comment handler: user=%s comment=%s err=%v", userID, commentID, err)
		}
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Comment deleted successfully",
	})
}

// Thread handles GET /books/:id/thread?page=N
// Returns the spoiler-filtered discussion: comments anchored at or before
// the reader's page plus the count of hidden comments.
func (h *DiscussionHandler) Thread(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	page := 0
	if p := r.URL.Query().Get("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 0 {
			httputil.WriteBadRequest(w, "Invalid page parameter")
			return
		}
		page = parsed
	}

	thread, err := h.discussionService.Thread(r.Context(), bookID, page)
	if err != nil {
		if model.KindOf(err) == model.KindUnknown {
			log.Printf("[ERROR] Thread handler: book=%s err=%v", bookID, err)
		}
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, thread)
}

// ChapterThread handles GET /books/:id/chapters/:chapterId/thread
// Returns the discussion scoped to one chapter, regardless of the reader's
// progress.
func (h *DiscussionHandler) ChapterThread(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	chapterID := chi.URLParam(r, "chapterId")

	comments, err := h.discussionService.ChapterThread(r.Context(), bookID, chapterID)
	if err != nil {
		if model.KindOf(err) == model.KindUnknown {
			log.Printf("[ERROR] ChapterThread handler: book=%s chapter=%s err=%v", bookID, chapterID, err)
		}
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"comments": comments,
	})
}

// Count handles GET /books/:id/comments/count
func (h *DiscussionHandler) Count(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")

	count, err := h.discussionService.Count(r.Context(), bookID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]int{"count": count})
}

// MyComments handles GET /me/comments
// Returns the authenticated user's comments across all books.
func (h *DiscussionHandler) MyComments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	comments, err := h.discussionService.ListByUser(r.Context(), userID, limit)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"comments": comments,
	})
}
