package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"stoa/internal/httputil"
	"stoa/internal/model"
	"stoa/internal/ratelimit"
	"stoa/internal/service"
	"stoa/internal/transport/http/middleware"
)

type SummaryHandler struct {
	summaryService *service.SummaryService
	limiter        ratelimit.Limiter
}

func NewSummaryHandler(summaryService *service.SummaryService, limiter ratelimit.Limiter) *SummaryHandler {
	return &SummaryHandler{
		summaryService: summaryService,
		limiter:        limiter,
	}
}

// Generate handles POST /summary
// The endpoint is rate limited per user; over-limit requests get 429.
// Provider failures never surface as errors - the service degrades to a
// placeholder summary instead.
func (h *SummaryHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(r.Context(), userID)
		if err != nil {
			// A broken limiter fails open; summaries are best-effort anyway.
			log.Printf("[ERROR] Summary rate limit check: user=%s err=%v", userID, err)
		} else if !allowed {
			httputil.WriteTooManyRequests(w, "Too many summary requests, try again later")
			return
		}
	}

	var req model.SummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		httputil.WriteBadRequest(w, validationMessage(err))
		return
	}

	summary, err := h.summaryService.Generate(r.Context(), req)
	if err != nil {
		httputil.WriteAppError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}
