package cms

import "github.com/yourorg/notioncms/internal/content"

// PageContent is a fully resolved page. Values are shared with the cache and must not be mutated.
type PageContent struct {
	Properties  map[string]any  `json:"properties"`
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	HTML        string          `json:"html"`
	Markdown    string          `json:"markdown"`
	LastEdited  string          `json:"lastEdited"`
	CreatedTime string          `json:"createdTime"`
	Content     []content.Block `json:"content"`
}

// Page is the listing view of a database row.
type Page struct {
	Properties map[string]any `json:"properties"`
	ID         string         `json:"id"`
	Slug       string         `json:"slug"`
	Title      string         `json:"title"`
}

// Collection is one page of a database query.
type Collection struct {
	NextCursor string `json:"nextCursor,omitempty"`
	Pages      []Page `json:"pages"`
	HasMore    bool   `json:"hasMore"`
}

// QueryOptions narrows a collection query. Filter and Sorts use the Notion query JSON shapes.
type QueryOptions struct {
	Filter      any    `json:"filter,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	Sorts       []any  `json:"sorts,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}
