package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stoa/internal/model"
)

func newTestSummaryService(apiKey, baseURL string) *SummaryService {
	return &SummaryService{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		apiKey:     apiKey,
		model:      "gpt-4o-mini",
		baseURL:    baseURL,
	}
}

func chatStub(t *testing.T, status int, content string, gotReq *chatRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); !strings.HasPrefix(got, "Bearer ") {
			t.Errorf("Authorization = %q, want Bearer token", got)
		}
		if gotReq != nil {
			if err := json.NewDecoder(r.Body).Decode(gotReq); err != nil {
				t.Errorf("decode upstream request: %v", err)
			}
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": content}},
				},
			})
		}
	}))
}

func TestSummaryService_Generate_Full(t *testing.T) {
	var upstream chatRequest
	server := chatStub(t, http.StatusOK, "A sweeping meditation on fate.", &upstream)
	defer server.Close()

	svc := newTestSummaryService("sk-test", server.URL)
	resp, err := svc.Generate(context.Background(), model.SummaryRequest{
		BookTitle: "War and Peace",
		Author:    "Leo Tolstoy",
		Type:      model.SummaryTypeFull,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Summary != "A sweeping meditation on fate." {
		t.Errorf("summary = %q", resp.Summary)
	}

	if upstream.MaxTokens != 500 {
		t.Errorf("max_tokens = %d, want 500", upstream.MaxTokens)
	}
	if len(upstream.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(upstream.Messages))
	}
	if !strings.Contains(upstream.Messages[1].Content, `"War and Peace"`) {
		t.Errorf("user prompt missing title: %q", upstream.Messages[1].Content)
	}
}

func TestSummaryService_Generate_ProgressPrompt(t *testing.T) {
	var upstream chatRequest
	server := chatStub(t, http.StatusOK, "So far the reader has met the Rostovs.", &upstream)
	defer server.Close()

	svc := newTestSummaryService("sk-test", server.URL)
	_, err := svc.Generate(context.Background(), model.SummaryRequest{
		BookTitle:   "War and Peace",
		Author:      "Leo Tolstoy",
		Type:        model.SummaryTypeProgress,
		CurrentPage: 250,
		TotalPages:  1000,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if upstream.MaxTokens != 400 {
		t.Errorf("max_tokens = %d, want 400", upstream.MaxTokens)
	}
	// 250/1000 rounds to 25%; the prompt carries the percentage twice.
	if !strings.Contains(upstream.Messages[1].Content, "page 250 of 1000 (25%)") {
		t.Errorf("user prompt missing progress line: %q", upstream.Messages[1].Content)
	}
	if !strings.Contains(upstream.Messages[1].Content, "first 25%") {
		t.Errorf("user prompt missing spoiler bound: %q", upstream.Messages[1].Content)
	}
}

func TestSummaryService_Generate_ProviderFailureDegrades(t *testing.T) {
	server := chatStub(t, http.StatusInternalServerError, "", nil)
	defer server.Close()

	svc := newTestSummaryService("sk-test", server.URL)
	resp, err := svc.Generate(context.Background(), model.SummaryRequest{
		BookTitle: "Meditations",
		Author:    "Marcus Aurelius",
		Type:      model.SummaryTypeFull,
	})
	if err != nil {
		t.Fatalf("provider failure surfaced as error: %v", err)
	}
	if resp.Summary != model.SummaryUnavailable {
		t.Errorf("summary = %q, want placeholder", resp.Summary)
	}
}

func TestSummaryService_Generate_NoKeyConfigured(t *testing.T) {
	svc := newTestSummaryService("", "http://127.0.0.1:0")

	resp, err := svc.Generate(context.Background(), model.SummaryRequest{
		BookTitle: "Meditations",
		Author:    "Marcus Aurelius",
		Type:      model.SummaryTypeFull,
	})
	if err != nil {
		t.Fatalf("missing key surfaced as error: %v", err)
	}
	if resp.Summary != model.SummaryNotConfigured {
		t.Errorf("summary = %q, want not-configured placeholder", resp.Summary)
	}
}

func TestSummaryService_Generate_Validation(t *testing.T) {
	server := chatStub(t, http.StatusOK, "should never be reached", nil)
	defer server.Close()
	svc := newTestSummaryService("sk-test", server.URL)

	tests := []struct {
		name string
		req  model.SummaryRequest
	}{
		{name: "missing title", req: model.SummaryRequest{Author: "A", Type: model.SummaryTypeFull}},
		{name: "missing author", req: model.SummaryRequest{BookTitle: "T", Type: model.SummaryTypeFull}},
		{name: "unknown type", req: model.SummaryRequest{BookTitle: "T", Author: "A", Type: "chapter"}},
		{name: "progress without pages", req: model.SummaryRequest{BookTitle: "T", Author: "A", Type: model.SummaryTypeProgress}},
		{name: "progress with zero total", req: model.SummaryRequest{BookTitle: "T", Author: "A", Type: model.SummaryTypeProgress, CurrentPage: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), tt.req)
			if model.KindOf(err) != model.KindValidation {
				t.Fatalf("error kind = %v, want validation (err=%v)", model.KindOf(err), err)
			}
		})
	}
}
