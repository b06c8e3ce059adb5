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

type LibraryHandler struct {
	libraryService *service.LibraryService
}

func NewLibraryHandler(libraryService *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{
		libraryService: libraryService,
	}
}

// Add handles POST /books
func (h *LibraryHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.AddBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, validationMessage(err))
		return
	}

	book, err := h.libraryService.AddBook(r.Context(), userID, req)
	if err != nil {
		if model.KindOf(err) == model.KindUnknown {
			log.Printf("[ERROR] Add book handler: user=%s err=%v", userID, err)
		}
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, book)
}

// List handles GET /books
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	books, err := h.libraryService.ListBooks(r.Context(), userID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"books": books,
	})
}

// Get handles GET /books/:id
func (h *LibraryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	book, err := h.libraryService.GetBook(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, book)
}

// UpdateProgress handles PATCH /books/:id/progress
func (h *LibraryHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	bookID := chi.URLParam(r, "id")

	var req model.UpdateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	book, err := h.libraryService.UpdateProgress(r.Context(), bookID, userID, req)
	if err != nil {
		if model.KindOf(err) == model.KindUnknown {
			log.Printf("[ERROR] Update progress handler: user=%s book=%s err=%v", userID, bookID, err)
		}
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, book)
}

// ToggleCompletion handles POST /books/:id/toggle-completion
func (h *LibraryHandler) ToggleCompletion(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	book, err := h.libraryService.ToggleCompletion(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, book)
}

// Remove handles DELETE /books/:id
func (h *LibraryHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := h.libraryService.RemoveBook(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Book removed successfully",
	})
}

// ListChapters handles GET /books/:id/chapters
func (h *LibraryHandler) ListChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := h.libraryService.ListChapters(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"chapters": chapters,
	})
}

// SetChapters handles PUT /books/:id/chapters
func (h *LibraryHandler) SetChapters(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	bookID := chi.URLParam(r, "id")

	var req struct {
		Chapters []model.Chapter `json:"chapters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	chapters, err := h.libraryService.SetChapters(r.Context(), bookID, userID, req.Chapters)
	if err != nil {
		if model.KindOf(err) == model.KindUnknown {
			log.Printf("[ERROR] Set chapters handler: user=%s book=%s err=%v", userID, bookID, err)
		}
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"chapters": chapters,
	})
}

// Activity handles GET /me/activity?days=N
// Returns daily pages-read totals for the reading heatmap.
func (h *LibraryHandler) Activity(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	days := 0
	if d := r.URL.Query().Get("days"); d != "" {
		parsed, err := strconv.Atoi(d)
		if err != nil || parsed <= 0 {
			httputil.WriteBadRequest(w, "Invalid days parameter")
			return
		}
		days = parsed
	}

	activity, err := h.libraryService.RecentActivity(r.Context(), userID, days)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"activity": activity,
	})
}
