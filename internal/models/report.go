package models

import "time"

// Report represents one compiled daily report for a (date, market) pair.
// The HTML field is a fully self-contained artifact served unmodified.
type Report struct {
	// Identity: the key is derived from (date, market) so the store itself
	// can never hold two reports for the same pair
	ID     string `json:"id" badgerhold:"key"` // rpt_{date}_{market}
	Date   string `json:"date" badgerhold:"index"`
	Market string `json:"market" badgerhold:"index"`

	HTML string `json:"html"`

	// Summary counts captured at compile time
	TotalEvents    int            `json:"total_events"`
	HighImpact     int            `json:"high_impact"`
	AnalyzedEvents int            `json:"analyzed_events"`
	Sentiments     map[string]int `json:"sentiments"` // sentiment label -> count

	CreatedAt time.Time `json:"created_at"`
}

// ReportID derives the storage key for a (date, market) pair.
func ReportID(date, market string) string {
	return "rpt_" + date + "_" + market
}

// Postmortem represents one user-authored reflection attached to a report.
// Append-only, markdown free text, ordered by creation time.
type Postmortem struct {
	ID       string `json:"id" badgerhold:"key"` // pm_{uuid}
	ReportID string `json:"report_id" badgerhold:"index"`

	Reflection string `json:"reflection"` // markdown

	CreatedAt time.Time `json:"created_at"`
}
