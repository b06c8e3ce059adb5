package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"stoa/internal/config"
	"stoa/internal/model"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// SummaryService generates book summaries through the OpenAI chat
// completions API. The feature is strictly best-effort: a missing key or a
// provider failure degrades to a placeholder summary, never to an error.
// Only request validation can fail a summary call.
type SummaryService struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

func NewSummaryService(cfg *config.Config) *SummaryService {
	return &SummaryService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     cfg.OpenAIAPIKey,
		model:      cfg.OpenAIModel,
		baseURL:    defaultOpenAIBaseURL,
	}
}

// Generate returns a summary for the request. Validation errors are the only
// error path; provider problems come back as a placeholder summary with a
// nil error.
func (s *SummaryService) Generate(ctx context.Context, req model.SummaryRequest) (*model.SummaryResponse, error) {
	if req.BookTitle == "" || req.Author == "" {
		return nil, model.NewValidation("book title and author are required")
	}
	if req.Type != model.SummaryTypeFull && req.Type != model.SummaryTypeProgress {
		return nil, model.NewValidation("type must be %q or %q", model.SummaryTypeFull, model.SummaryTypeProgress)
	}
	if req.Type == model.SummaryTypeProgress && (req.CurrentPage <= 0 || req.TotalPages <= 0) {
		return nil, model.NewValidation("current page and total pages are required for progress summary")
	}

	if s.apiKey == "" {
		return &model.SummaryResponse{Summary: model.SummaryNotConfigured}, nil
	}

	var system, user string
	var maxTokens int
	if req.Type == model.SummaryTypeFull {
		system = "You are a literary scholar who provides concise, insightful summaries of books. Focus on main themes, key arguments, and philosophical insights."
		user = fmt.Sprintf(`Provide a comprehensive summary of %q by %s. Include:
1. Main themes and central arguments
2. Key philosophical or intellectual contributions
3. Historical context and significance
4. Core ideas that readers should understand

Keep it concise but informative (200-300 words).`, req.BookTitle, req.Author)
		maxTokens = 500
	} else {
		percentage := int(math.Round(float64(req.CurrentPage) / float64(req.TotalPages) * 100))
		system = "You are a literary guide helping readers understand what they have read so far in a book."
		user = fmt.Sprintf(`A reader is at page %d of %d (%d%%) in %q by %s.

Provide a summary of what typically happens in the first %d%% of this book:
1. Key events or arguments covered so far
2. Important concepts introduced
3. What the reader should have understood by this point

Keep it concise (150-200 words) and avoid spoilers beyond this point.`,
			req.CurrentPage, req.TotalPages, percentage, req.BookTitle, req.Author, percentage)
		maxTokens = 400
	}

	summary, err := s.complete(ctx, system, user, maxTokens)
	if err != nil {
		log.Printf("[SummaryService] Generate degraded: book=%q type=%s err=%v", req.BookTitle, req.Type, err)
		return &model.SummaryResponse{Summary: model.SummaryUnavailable}, nil
	}

	log.Printf("[SummaryService] Generate OK: book=%q type=%s", req.BookTitle, req.Type)
	return &model.SummaryResponse{Summary: summary}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (s *SummaryService) complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("chat completions call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}
