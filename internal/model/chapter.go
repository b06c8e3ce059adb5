package model

// Chapter partitions a book's pages. A chapter covers [StartPage, next
// chapter's StartPage); the last chapter is unbounded above. Chapters are
// always listed in ascending StartPage order.
type Chapter struct {
	ID        string `db:"id" json:"id"`
	BookID    string `db:"book_id" json:"book_id"`
	Title     string `db:"title" json:"title"`
	StartPage int    `db:"start_page" json:"start_page"`
}
