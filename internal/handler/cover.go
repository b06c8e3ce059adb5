package handler

import (
	"errors"
	"log"
	"net/http"

	"stoa/internal/httputil"
	"stoa/internal/model"
	"stoa/internal/service"
	"stoa/internal/transport/http/middleware"
)

type CoverHandler struct {
	coverService *service.CoverService
}

func NewCoverHandler(coverService *service.CoverService) *CoverHandler {
	return &CoverHandler{
		coverService: coverService,
	}
}

// Upload handles POST /covers
// Accepts a multipart "file" field, normalizes it to a cover-sized JPEG and
// stores it in R2. Returns the public URL for use as a book thumbnail.
func (h *CoverHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(model.MaxCoverSizeBytes); err != nil {
		httputil.WriteBadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteBadRequest(w, "Missing file field")
		return
	}
	defer file.Close()

	result, err := h.coverService.UploadCover(r.Context(), file, header)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrFileTooLarge):
			httputil.WriteBadRequest(w, "File exceeds maximum allowed size")
		case errors.Is(err, model.ErrInvalidImageType):
			httputil.WriteBadRequest(w, "Unsupported image type")
		default:
			log.Printf("[ERROR] Upload cover handler: user=%s err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to upload cover")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, result)
}
