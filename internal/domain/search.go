package domain

// Searcher ranks catalog content against a free-text query
type Searcher interface {
	Search(query string, items []Content) []Content
}
