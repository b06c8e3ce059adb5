package model

// SummaryType selects between a whole-book summary and a summary of the
// portion read so far.
const (
	SummaryTypeFull     = "full"
	SummaryTypeProgress = "progress"
)

// SummaryRequest is the request body for the AI summary endpoint. Field
// names mirror the client payload.
type SummaryRequest struct {
	BookTitle   string `json:"bookTitle" validate:"required"`
	Author      string `json:"author" validate:"required"`
	CurrentPage int    `json:"currentPage,omitempty"`
	TotalPages  int    `json:"totalPages,omitempty"`
	Type        string `json:"type" validate:"required,oneof=full progress"`
}

// SummaryResponse carries the generated (or placeholder) summary text.
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// Placeholder texts for the best-effort summary feature. The endpoint never
// surfaces provider failures as errors; it degrades to one of these.
const (
	SummaryNotConfigured = "AI summaries are currently unavailable. Please configure OPENAI_API_KEY in your environment variables."
	SummaryUnavailable   = "Unable to generate summary at this time."
)
