package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"stoa/internal/handler"
	"stoa/internal/httputil"
	authmw "stoa/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	AuthHandler       *handler.AuthHandler
	LibraryHandler    *handler.LibraryHandler
	DiscussionHandler *handler.DiscussionHandler
	SummaryHandler    *handler.SummaryHandler
	SearchHandler     *handler.SearchHandler
	CoverHandler      *handler.CoverHandler
	JWTSecret         string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public routes - no authentication required
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", cfg.AuthHandler.Register)
		r.Post("/login", cfg.AuthHandler.Login)
	})

	// Public discussion reads: threads are readable without an account,
	// filtered by whatever page the caller claims.
	r.Get("/books/search", cfg.SearchHandler.Search)
	r.Get("/books/{id}/thread", cfg.DiscussionHandler.Thread)
	r.Get("/books/{id}/chapters", cfg.LibraryHandler.ListChapters)
	r.Get("/books/{id}/chapters/{chapterId}/thread", cfg.DiscussionHandler.ChapterThread)
	r.Get("/books/{id}/comments/count", cfg.DiscussionHandler.Count)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		// Current user endpoints
		r.Get("/me", cfg.AuthHandler.Me)
		r.Get("/me/comments", cfg.DiscussionHandler.MyComments)
		r.Get("/me/activity", cfg.LibraryHandler.Activity)

		// Library endpoints
		r.Post("/books", cfg.LibraryHandler.Add)
		r.Get("/books", cfg.LibraryHandler.List)
		r.Get("/books/{id}", cfg.LibraryHandler.Get)
		r.Delete("/books/{id}", cfg.LibraryHandler.Remove)
		r.Patch("/books/{id}/progress", cfg.LibraryHandler.UpdateProgress)
		r.Post("/books/{id}/toggle-completion", cfg.LibraryHandler.ToggleCompletion)
		r.Put("/books/{id}/chapters", cfg.LibraryHandler.SetChapters)

		// Discussion writes
		r.Post("/books/{id}/comments", cfg.DiscussionHandler.Create)
		r.Patch("/comments/{commentId}", cfg.DiscussionHandler.Update)
		r.Delete("/comments/{commentId}", cfg.DiscussionHandler.Delete)

		// AI summary (rate limited per user)
		r.Post("/summary", cfg.SummaryHandler.Generate)

		// Cover uploads
		if cfg.CoverHandler != nil {
			r.Post("/covers", cfg.CoverHandler.Upload)
		}
	})

	return r
}
