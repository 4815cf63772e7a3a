// -----------------------------------------------------------------------
// Calendar page parser. Extracts event rows from the rendered HTML with
// structural selectors; fallback selectors cover minor markup drift on
// the source without a code change.
// -----------------------------------------------------------------------

package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/models"
)

// rowSelectors are tried in order; the first selector matching any rows
// wins. The source marks event rows with js-event-item today, the broader
// table selectors also match older markup.
var rowSelectors = []string{
	"table#economicCalendarData tr.js-event-item",
	"tr.js-event-item",
	"table.economicCalendarTable tbody tr",
	"table#ecEventsTable tbody tr",
}

// Parser extracts economic events from a rendered calendar page
type Parser struct {
	logger arbor.ILogger
}

// NewParser creates a new calendar page parser
func NewParser(logger arbor.ILogger) *Parser {
	return &Parser{
		logger: logger,
	}
}

// Parse extracts all event rows for the given date from the page HTML.
// Rows that cannot be parsed are logged and skipped; the page failing to
// contain a recognizable event table at all is an error.
func (p *Parser) Parse(html, date, sourceURL string) ([]*models.EconomicEvent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar HTML: %w", err)
	}

	rows := p.findEventRows(doc)
	if rows == nil {
		return nil, fmt.Errorf("no event table found in calendar page (%d bytes)", len(html))
	}

	var events []*models.EconomicEvent
	skipped := 0

	rows.Each(func(i int, row *goquery.Selection) {
		event, err := p.parseRow(row, date, sourceURL)
		if err != nil {
			skipped++
			p.logger.Debug().
				Err(err).
				Int("row", i).
				Msg("Skipping unparseable calendar row")
			return
		}
		events = append(events, event)
	})

	p.logger.Info().
		Str("date", date).
		Int("events", len(events)).
		Int("skipped", skipped).
		Msg("Calendar page parsed")

	return events, nil
}

// findEventRows returns the first non-empty row selection, or nil when no
// selector matches anything.
func (p *Parser) findEventRows(doc *goquery.Document) *goquery.Selection {
	for _, selector := range rowSelectors {
		rows := doc.Find(selector)
		if rows.Length() > 0 {
			p.logger.Debug().
				Str("selector", selector).
				Int("rows", rows.Length()).
				Msg("Matched event rows")
			return rows
		}
	}
	return nil
}

// parseRow converts a single table row into an event. Returns an error
// for separator and header rows, which carry no event name or currency.
func (p *Parser) parseRow(row *goquery.Selection, date, sourceURL string) (*models.EconomicEvent, error) {
	cells := row.Find("td")

	name := collapseWhitespace(cellText(row, cells, "td.event", 3))
	if name == "" {
		return nil, fmt.Errorf("row has no event name")
	}

	currency := collapseWhitespace(cellText(row, cells, "td.flagCur", 1))
	// The currency cell carries a flag icon before the code; the code is
	// the last whitespace-separated token.
	if fields := strings.Fields(currency); len(fields) > 0 {
		currency = fields[len(fields)-1]
	}
	if currency == "" {
		return nil, fmt.Errorf("row has no currency")
	}

	event := &models.EconomicEvent{
		Date:       date,
		EventName:  name,
		EventTime:  parseClock(cellText(row, cells, "td.time, td.js-time", 0)),
		Currency:   currency,
		Importance: p.importanceFromRow(row),
		Actual:     cellValue(row, cells, "td.act", 4),
		Forecast:   cellValue(row, cells, "td.fore", 5),
		Previous:   cellValue(row, cells, "td.prev", 6),
		SourceURL:  sourceURL,
	}

	return event, nil
}

// importanceFromRow maps the bullish-icon count in the sentiment cell to
// an importance label: three or more icons High, exactly two Medium,
// anything less Low. The cell title is the fallback when the icons are
// missing.
func (p *Parser) importanceFromRow(row *goquery.Selection) string {
	sentiment := row.Find("td.sentiment")
	if sentiment.Length() == 0 {
		sentiment = row
	}

	icons := sentiment.Find("i.grayFullBullishIcon").Length()
	if icons == 0 {
		if title, ok := sentiment.Attr("title"); ok {
			lower := strings.ToLower(title)
			switch {
			case strings.Contains(lower, "high"):
				return models.ImportanceHigh
			case strings.Contains(lower, "moderate"), strings.Contains(lower, "medium"):
				return models.ImportanceMedium
			}
		}
		return models.ImportanceLow
	}

	switch {
	case icons >= 3:
		return models.ImportanceHigh
	case icons == 2:
		return models.ImportanceMedium
	default:
		return models.ImportanceLow
	}
}

// cellText reads a cell by class selector, falling back to a positional
// index when the class is absent.
func cellText(row *goquery.Selection, cells *goquery.Selection, selector string, index int) string {
	if cell := row.Find(selector); cell.Length() > 0 {
		return cell.First().Text()
	}
	if cells.Length() > index {
		return cells.Eq(index).Text()
	}
	return ""
}

// cellValue normalizes an actual/forecast/previous cell: the source uses
// a dash or non-breaking space for "not published yet", which maps to an
// empty string.
func cellValue(row *goquery.Selection, cells *goquery.Selection, selector string, index int) string {
	text := collapseWhitespace(cellText(row, cells, selector, index))
	if text == "-" {
		return ""
	}
	return text
}

// parseClock returns the HH:MM time of a row, or nil for all-day rows.
// "All Day", "Tentative", a bare dash, and anything that does not parse
// as a clock time all mean the event has no specific time.
func parseClock(raw string) *string {
	text := collapseWhitespace(raw)
	if text == "" || text == "-" {
		return nil
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "all day") || strings.Contains(lower, "tentative") {
		return nil
	}

	if _, err := time.Parse(models.ClockLayout, text); err != nil {
		return nil
	}
	return &text
}

// collapseWhitespace trims a string and collapses internal runs of
// whitespace (including non-breaking spaces) to single spaces.
func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}
