package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stoa/internal/cache"
	"stoa/internal/model"
)

const (
	googleBooksURL = "https://www.googleapis.com/books/v1/volumes"
	openLibraryURL = "https://openlibrary.org/search.json"
)

// SearchService queries external book-metadata APIs. Google Books is the
// primary source; Open Library is the fallback when Google returns nothing
// or fails. Results are cached by query.
type SearchService struct {
	httpClient  *http.Client
	searchCache cache.SearchCache

	googleURL      string
	openLibraryURL string
}

func NewSearchService(searchCache cache.SearchCache) *SearchService {
	return &SearchService{
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		searchCache:    searchCache,
		googleURL:      googleBooksURL,
		openLibraryURL: openLibraryURL,
	}
}

// Search looks up books matching query. Both providers failing yields an
// empty result, not an error; the add-book flow still works with manual
// entry.
func (s *SearchService) Search(ctx context.Context, query string, limit int) ([]model.BookSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, model.NewValidation("search query is required")
	}
	if limit <= 0 {
		limit = 10
	}
	if limit > 40 {
		limit = 40
	}

	if s.searchCache != nil {
		results, found, err := s.searchCache.Get(ctx, query)
		if err == nil && found {
			return results, nil
		}
	}

	results, err := s.searchGoogle(ctx, query, limit)
	if err != nil || len(results) == 0 {
		if err != nil {
			log.Printf("[SearchService] Google Books failed, trying Open Library: %v", err)
		}
		results, err = s.searchOpenLibrary(ctx, query, limit)
		if err != nil {
			log.Printf("[SearchService] Open Library failed: %v", err)
			results = []model.BookSearchResult{}
		}
	}

	if s.searchCache != nil && len(results) > 0 {
		if err := s.searchCache.Set(ctx, query, results); err != nil {
			log.Printf("[SearchService] cache set failed: query=%q err=%v", query, err)
		}
	}
	return results, nil
}

type googleVolume struct {
	ID         string `json:"id"`
	VolumeInfo struct {
		Title      string   `json:"title"`
		Authors    []string `json:"authors"`
		PageCount  int      `json:"pageCount"`
		Publisher  string   `json:"publisher"`
		ImageLinks struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"imageLinks"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
	} `json:"volumeInfo"`
}

func (s *SearchService) searchGoogle(ctx context.Context, query string, limit int) ([]model.BookSearchResult, error) {
	u := fmt.Sprintf("%s?q=%s&maxResults=%d&langRestrict=en",
		s.googleURL, url.QueryEscape(query), limit)

	var payload struct {
		Items []googleVolume `json:"items"`
	}
	if err := s.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}

	results := make([]model.BookSearchResult, 0, len(payload.Items))
	for _, item := range payload.Items {
		info := item.VolumeInfo
		title := info.Title
		if title == "" {
			title = "Unknown Title"
		}
		authors := info.Authors
		if len(authors) == 0 {
			authors = []string{"Unknown Author"}
		}
		var isbn string
		if len(info.IndustryIdentifiers) > 0 {
			isbn = info.IndustryIdentifiers[0].Identifier
		}
		results = append(results, model.BookSearchResult{
			ID:        item.ID,
			Title:     title,
			Authors:   authors,
			PageCount: info.PageCount,
			Thumbnail: strings.Replace(info.ImageLinks.Thumbnail, "http:", "https:", 1),
			ISBN:      isbn,
			Publisher: info.Publisher,
		})
	}
	return results, nil
}

type openLibraryDoc struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	AuthorName []string `json:"author_name"`
	PagesMed   int      `json:"number_of_pages_median"`
	CoverID    int      `json:"cover_i"`
	ISBN       []string `json:"isbn"`
	Publisher  []string `json:"publisher"`
}

func (s *SearchService) searchOpenLibrary(ctx context.Context, query string, limit int) ([]model.BookSearchResult, error) {
	u := fmt.Sprintf("%s?q=%s&limit=%d&fields=key,title,author_name,number_of_pages_median,cover_i,isbn,publisher",
		s.openLibraryURL, url.QueryEscape(query), limit)

	var payload struct {
		Docs []openLibraryDoc `json:"docs"`
	}
	if err := s.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}

	results := make([]model.BookSearchResult, 0, len(payload.Docs))
	for _, doc := range payload.Docs {
		title := doc.Title
		if title == "" {
			title = "Unknown Title"
		}
		authors := doc.AuthorName
		if len(authors) == 0 {
			authors = []string{"Unknown Author"}
		}
		var thumbnail string
		if doc.CoverID != 0 {
			thumbnail = "https://covers.openlibrary.org/b/id/" + strconv.Itoa(doc.CoverID) + "-M.jpg"
		}
		var isbn string
		if len(doc.ISBN) > 0 {
			isbn = doc.ISBN[0]
		}
		var publisher string
		if len(doc.Publisher) > 0 {
			publisher = doc.Publisher[0]
		}
		results = append(results, model.BookSearchResult{
			ID:        strings.TrimPrefix(doc.Key, "/works/"),
			Title:     title,
			Authors:   authors,
			PageCount: doc.PagesMed,
			Thumbnail: thumbnail,
			ISBN:      isbn,
			Publisher: publisher,
		})
	}
	return results, nil
}

func (s *SearchService) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode search response: %w", err)
	}
	return nil
}
