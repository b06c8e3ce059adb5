package visibility

import (
	"testing"

	"stoa/internal/model"
)

func commentsAt(pages ...int) []model.Comment {
	out := make([]model.Comment, len(pages))
	for i, p := range pages {
		out[i] = model.Comment{ID: string(rune('a' + i)), Page: p}
	}
	return out
}

func pagesOf(comments []model.Comment) []int {
	out := make([]int, len(comments))
	for i, c := range comments {
		out[i] = c.Page
	}
	return out
}

func equalPages(a []int, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestByPage(t *testing.T) {
	tests := []struct {
		name        string
		pages       []int
		currentPage int
		wantPages   []int
		wantHidden  int
	}{
		{
			name:        "reader midway sees earlier comments",
			pages:       []int{10, 50, 150},
			currentPage: 50,
			wantPages:   []int{10, 50},
			wantHidden:  1,
		},
		{
			name:        "reader at last anchor sees everything",
			pages:       []int{10, 50, 150},
			currentPage: 150,
			wantPages:   []int{10, 50, 150},
			wantHidden:  0,
		},
		{
			name:        "boundary is inclusive",
			pages:       []int{42},
			currentPage: 42,
			wantPages:   []int{42},
			wantHidden:  0,
		},
		{
			name:        "one page short hides the comment",
			pages:       []int{42},
			currentPage: 41,
			wantPages:   []int{},
			wantHidden:  1,
		},
		{
			name:        "page zero comments always visible",
			pages:       []int{0, 200},
			currentPage: 0,
			wantPages:   []int{0},
			wantHidden:  1,
		},
		{
			name:        "empty input",
			pages:       nil,
			currentPage: 100,
			wantPages:   []int{},
			wantHidden:  0,
		},
		{
			name:        "order preserved, only subset",
			pages:       []int{150, 10, 50, 20},
			currentPage: 50,
			wantPages:   []int{10, 50, 20},
			wantHidden:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hidden := ByPage(commentsAt(tt.pages...), tt.currentPage)

			if !equalPages(pagesOf(got), tt.wantPages) {
				t.Errorf("visible pages = %v, want %v", pagesOf(got), tt.wantPages)
			}
			if hidden != tt.wantHidden {
				t.Errorf("hidden = %d, want %d", hidden, tt.wantHidden)
			}
		})
	}
}

// Advancing the reader's page can only grow the visible set.
func TestByPage_Monotonic(t *testing.T) {
	comments := commentsAt(0, 3, 7, 7, 12, 40, 41, 99, 300)

	prev := -1
	for page := 0; page <= 310; page += 7 {
		got, hidden := ByPage(comments, page)
		if len(got) < prev {
			t.Fatalf("visible count shrank from %d to %d at page %d", prev, len(got), page)
		}
		if len(got)+hidden != len(comments) {
			t.Fatalf("visible+hidden = %d, want %d", len(got)+hidden, len(comments))
		}
		prev = len(got)
	}
}

func chapterFixture() []model.Chapter {
	return []model.Chapter{
		{ID: "ch1", Title: "I", StartPage: 1},
		{ID: "ch2", Title: "II", StartPage: 30},
		{ID: "ch3", Title: "III", StartPage: 80},
	}
}

func TestByChapter(t *testing.T) {
	comments := commentsAt(1, 15, 29, 30, 79, 80, 500)
	chapters := chapterFixture()

	tests := []struct {
		name      string
		chapterID string
		wantPages []int
	}{
		{
			name:      "middle chapter is a half-open range",
			chapterID: "ch2",
			wantPages: []int{30, 79},
		},
		{
			name:      "first chapter excludes next chapter start",
			chapterID: "ch1",
			wantPages: []int{1, 15, 29},
		},
		{
			name:      "last chapter is unbounded above",
			chapterID: "ch3",
			wantPages: []int{80, 500},
		},
		{
			name:      "unknown chapter yields empty",
			chapterID: "ch9",
			wantPages: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ByChapter(comments, chapters, tt.chapterID)
			if !equalPages(pagesOf(got), tt.wantPages) {
				t.Errorf("scoped pages = %v, want %v", pagesOf(got), tt.wantPages)
			}
		})
	}
}

func TestByChapter_EmptyChapterList(t *testing.T) {
	got := ByChapter(commentsAt(1, 2, 3), nil, "ch1")
	if len(got) != 0 {
		t.Errorf("expected empty result with no chapters, got %d comments", len(got))
	}
}

// Every comment at or above the first chapter's start belongs to exactly one
// chapter; the ranges neither overlap nor leave gaps.
func TestByChapter_Partition(t *testing.T) {
	chapters := chapterFixture()
	comments := commentsAt(1, 5, 29, 30, 31, 79, 80, 81, 10000)

	seen := make(map[string]int)
	for _, ch := range chapters {
		for _, c := range ByChapter(comments, chapters, ch.ID) {
			seen[c.ID]++
		}
	}

	for _, c := range comments {
		if seen[c.ID] != 1 {
			t.Errorf("comment at page %d assigned to %d chapters, want 1", c.Page, seen[c.ID])
		}
	}
}

func TestChapterRange(t *testing.T) {
	chapters := chapterFixture()

	start, end, bounded, ok := ChapterRange(chapters, "ch2")
	if !ok || !bounded || start != 30 || end != 80 {
		t.Errorf("ch2 range = [%d,%d) bounded=%t ok=%t, want [30,80) bounded=true ok=true", start, end, bounded, ok)
	}

	start, _, bounded, ok = ChapterRange(chapters, "ch3")
	if !ok || bounded || start != 80 {
		t.Errorf("ch3 range start=%d bounded=%t ok=%t, want start=80 unbounded", start, bounded, ok)
	}

	_, _, _, ok = ChapterRange(nil, "ch1")
	if ok {
		t.Error("expected ok=false for empty chapter list")
	}
}
