// Package visibility implements the spoiler-protection rules for discussion
// threads. It only ever subsets comment slices; ordering is whatever the
// store returned (created_at descending) and is never changed here. The same
// inclusive page boundary is applied by the repository's SQL filter, so
// server-side and in-memory filtering cannot disagree.
package visibility

import "stoa/internal/model"

// ByPage returns the comments anchored at or before the reader's current
// page, preserving order, plus the count of comments that were held back.
// The boundary is inclusive: a comment on exactly currentPage is visible.
func ByPage(comments []model.Comment, currentPage int) ([]model.Comment, int) {
	visible := make([]model.Comment, 0, len(comments))
	for _, c := range comments {
		if c.Page <= currentPage {
			visible = append(visible, c)
		}
	}
	return visible, len(comments) - len(visible)
}

// ChapterRange returns the page range [start, end) covered by the chapter
// with the given ID. For the last chapter there is no upper bound and
// bounded is false. ok is false when the chapter is not in the list.
// Chapters must be ordered by StartPage ascending, as the store returns them.
func ChapterRange(chapters []model.Chapter, chapterID string) (start, end int, bounded, ok bool) {
	for i, ch := range chapters {
		if ch.ID != chapterID {
			continue
		}
		if i+1 < len(chapters) {
			return ch.StartPage, chapters[i+1].StartPage, true, true
		}
		return ch.StartPage, 0, false, true
	}
	return 0, 0, false, false
}

// ByChapter returns the comments falling inside the selected chapter's page
// range: page >= StartPage and, unless it is the last chapter, page < the
// next chapter's StartPage. A comment on exactly the next chapter's
// StartPage belongs to that next chapter, not this one.
//
// Note that chapter scope deliberately ignores the reader's current page:
// selecting a chapter shows its whole discussion, unlike the flat timeline
// which gates on progress (see ByPage). An unknown chapter or an empty
// chapter list yields an empty result.
func ByChapter(comments []model.Comment, chapters []model.Chapter, chapterID string) []model.Comment {
	start, end, bounded, ok := ChapterRange(chapters, chapterID)
	if !ok {
		return []model.Comment{}
	}

	scoped := make([]model.Comment, 0, len(comments))
	for _, c := range comments {
		if c.Page < start {
			continue
		}
		if bounded && c.Page >= end {
			continue
		}
		scoped = append(scoped, c)
	}
	return scoped
}
