package model

import "errors"

// Cover upload constraints. Covers are normalized to a fixed-size JPEG
// before storage so the library grid never has to deal with odd aspect
// ratios or oversized files.
const (
	MaxCoverSizeBytes int64 = 5 * 1024 * 1024

	CoverWidth  = 320
	CoverHeight = 480

	CoverFolder = "covers"
	CoverExt    = ".jpg"

	ContentTypeJPEG = "image/jpeg"

	CoverCacheControl = "public, max-age=31536000, immutable"
)

// UploadResult is the stored location of an uploaded object.
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Media errors
var (
	ErrFileTooLarge     = errors.New("file exceeds maximum allowed size")
	ErrInvalidImageType = errors.New("unsupported image type")
)

// IsAllowedImageType reports whether the content type may be uploaded as a
// cover. Everything is re-encoded to JPEG after validation.
func IsAllowedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/webp":
		return true
	default:
		return false
	}
}
