package calendar

import (
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/models"
)

const sampleCalendarHTML = `<!DOCTYPE html>
<html><body>
<table id="economicCalendarData">
<tbody>
<tr><td class="theDay" colspan="8">Monday, January 15, 2024</td></tr>
<tr class="js-event-item">
  <td class="first left time js-time">13:30</td>
  <td class="left flagCur noWrap"><span class="ceFlags United_States"></span> USD</td>
  <td class="left textNum sentiment noWrap" title="High Volatility Expected"><i class="grayFullBullishIcon"></i><i class="grayFullBullishIcon"></i><i class="grayFullBullishIcon"></i></td>
  <td class="left event"><a href="/economic-calendar/core-retail-sales-63">Core Retail Sales  (MoM)  (Dec)</a></td>
  <td class="bold act">0.2%</td>
  <td class="fore">0.4%</td>
  <td class="prev">0.1%</td>
</tr>
<tr class="js-event-item">
  <td class="first left time js-time">09:00</td>
  <td class="left flagCur noWrap"><span class="ceFlags Germany"></span> EUR</td>
  <td class="left textNum sentiment noWrap" title="Moderate Volatility Expected"><i class="grayFullBullishIcon"></i><i class="grayFullBullishIcon"></i><i class="grayEmptyBullishIcon"></i></td>
  <td class="left event">German Buba Monthly Report</td>
  <td class="bold act">&nbsp;</td>
  <td class="fore">&nbsp;</td>
  <td class="prev">&nbsp;</td>
</tr>
<tr class="js-event-item">
  <td class="first left time js-time">All Day</td>
  <td class="left flagCur noWrap"><span class="ceFlags United_States"></span> USD</td>
  <td class="left textNum sentiment noWrap" title="Low Volatility Expected"><i class="grayFullBullishIcon"></i></td>
  <td class="left event">United States - Martin Luther King Jr. Day</td>
  <td class="bold act">-</td>
  <td class="fore">-</td>
  <td class="prev">-</td>
</tr>
</tbody>
</table>
</body></html>`

func TestParseCalendarPage(t *testing.T) {
	parser := NewParser(arbor.NewLogger())

	events, err := parser.Parse(sampleCalendarHTML, "2024-01-15", "http://example.com/calendar")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	retail := events[0]
	if retail.EventName != "Core Retail Sales (MoM) (Dec)" {
		t.Errorf("unexpected event name: %q", retail.EventName)
	}
	if retail.Currency != "USD" {
		t.Errorf("expected currency USD, got %q", retail.Currency)
	}
	if retail.EventTime == nil || *retail.EventTime != "13:30" {
		t.Errorf("expected time 13:30, got %v", retail.EventTime)
	}
	if retail.Importance != models.ImportanceHigh {
		t.Errorf("expected High importance, got %q", retail.Importance)
	}
	if retail.Actual != "0.2%" || retail.Forecast != "0.4%" || retail.Previous != "0.1%" {
		t.Errorf("unexpected values: actual=%q forecast=%q previous=%q", retail.Actual, retail.Forecast, retail.Previous)
	}
	if retail.Date != "2024-01-15" {
		t.Errorf("expected date 2024-01-15, got %q", retail.Date)
	}

	buba := events[1]
	if buba.Importance != models.ImportanceMedium {
		t.Errorf("expected Medium importance for two icons, got %q", buba.Importance)
	}
	if buba.Actual != "" {
		t.Errorf("expected empty actual for nbsp cell, got %q", buba.Actual)
	}

	holiday := events[2]
	if holiday.EventTime != nil {
		t.Errorf("expected nil time for all-day row, got %q", *holiday.EventTime)
	}
	if holiday.Importance != models.ImportanceLow {
		t.Errorf("expected Low importance for one icon, got %q", holiday.Importance)
	}
	if holiday.Actual != "" {
		t.Errorf("expected empty actual for dash cell, got %q", holiday.Actual)
	}
}

func TestParseNoEventTable(t *testing.T) {
	parser := NewParser(arbor.NewLogger())

	_, err := parser.Parse("<html><body><p>Please verify you are human</p></body></html>", "2024-01-15", "http://example.com")
	if err == nil {
		t.Fatal("expected an error for a page without an event table")
	}
}

func TestImportanceFromTitleFallback(t *testing.T) {
	// Rows without bullish icons fall back to the sentiment cell title.
	html := `<table><tbody>
	<tr class="js-event-item">
	  <td class="time">10:00</td>
	  <td class="flagCur">GBP</td>
	  <td class="sentiment" title="High Volatility Expected"></td>
	  <td class="event">BoE Gov Speech</td>
	</tr>
	</tbody></table>`

	parser := NewParser(arbor.NewLogger())
	events, err := parser.Parse(html, "2024-01-15", "http://example.com")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Importance != models.ImportanceHigh {
		t.Errorf("expected High from title fallback, got %q", events[0].Importance)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected *string
	}{
		{"plain time", "13:30", strPtr("13:30")},
		{"padded time", "  09:00  ", strPtr("09:00")},
		{"all day", "All Day", nil},
		{"tentative", "Tentative", nil},
		{"dash", "-", nil},
		{"empty", "", nil},
		{"not a clock", "soon", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseClock(tt.in)
			if tt.expected == nil {
				if got != nil {
					t.Errorf("expected nil, got %q", *got)
				}
				return
			}
			if got == nil || *got != *tt.expected {
				t.Errorf("expected %q, got %v", *tt.expected, got)
			}
		})
	}
}

func strPtr(s string) *string {
	return &s
}
