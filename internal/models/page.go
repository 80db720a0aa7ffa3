package models

import "time"

// Page is one window of conversations as returned by storage
type Page struct {
	Conversations []Conversation
	Total         int
	Offset        int
	Limit         int
	// Queries counts the storage round-trips spent building the page
	Queries int
}

// FilteredPage is a page after the client-side pass.
// Total is the storage total before refinement, so it is approximate
// whenever Approximate is set.
type FilteredPage struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
	Fetched       int            `json:"fetched"`
	Offset        int            `json:"offset"`
	Limit         int            `json:"limit"`
	Approximate   bool           `json:"approximate"`
	Version       uint64         `json:"version"`
	GeneratedAt   time.Time      `json:"generated_at"`
}

// HasNext reports whether storage holds rows past this page
func (p *FilteredPage) HasNext() bool {
	return p != nil && p.Limit > 0 && p.Offset+p.Fetched < p.Total
}

// HasPrev reports whether this page is not the first
func (p *FilteredPage) HasPrev() bool {
	return p != nil && p.Offset > 0
}
