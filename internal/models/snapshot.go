package models

import "time"

// CalendarSnapshot preserves the markdown rendering of the scraped source
// page for one date. Kept for selector debugging when a parse goes wrong.
type CalendarSnapshot struct {
	Date      string `json:"date" badgerhold:"key"`
	SourceURL string `json:"source_url"`
	Markdown  string `json:"markdown"`

	FetchedAt time.Time `json:"fetched_at"`
}
