// -----------------------------------------------------------------------
// Package timezone converts scraped event times from the calendar source
// zone into the trader's display zone. Conversion is best-effort: a bad
// zone identifier logs a warning and passes the original time through.
// -----------------------------------------------------------------------

package timezone

import (
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/auspex/internal/models"
)

// ZoneOption describes one selectable timezone for the settings page.
type ZoneOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Service converts event clock times between IANA timezones.
type Service struct {
	logger arbor.ILogger
}

// NewService creates a new timezone conversion service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// Convert maps a clock time on the given date from the source zone into the
// display zone and returns the time-of-day component only. The date is never
// re-derived: a conversion that crosses midnight keeps the event on its
// source date, which is acceptable for a daily calendar view.
//
// A nil clock means an all-day event and converts to nil. Malformed zones or
// clock strings are logged and the original value is returned unchanged, so
// ingestion never fails on timezone data.
func (s *Service) Convert(clock *string, date, sourceZone, displayZone string) *string {
	if clock == nil {
		return nil
	}
	if sourceZone == displayZone {
		return clock
	}

	srcLoc, err := time.LoadLocation(sourceZone)
	if err != nil {
		s.logger.Warn().Err(err).Str("zone", sourceZone).Msg("Unknown source timezone, keeping original time")
		return clock
	}

	dstLoc, err := time.LoadLocation(displayZone)
	if err != nil {
		s.logger.Warn().Err(err).Str("zone", displayZone).Msg("Unknown display timezone, keeping original time")
		return clock
	}

	// Anchor the clock to the event date so historical DST rules apply.
	at, err := time.ParseInLocation(models.DateLayout+" "+models.ClockLayout, date+" "+*clock, srcLoc)
	if err != nil {
		s.logger.Warn().Err(err).Str("date", date).Str("time", *clock).Msg("Unparseable event time, keeping original")
		return clock
	}

	converted := at.In(dstLoc).Format(models.ClockLayout)
	return &converted
}

// DisplayName renders a zone identifier as a human-readable label,
// e.g. "America/New_York" becomes "New York (America)".
func (s *Service) DisplayName(zone string) string {
	parts := strings.Split(zone, "/")
	if len(parts) < 2 {
		return zone
	}
	city := strings.ReplaceAll(parts[len(parts)-1], "_", " ")
	return city + " (" + parts[0] + ")"
}

// AvailableZones returns the curated timezone choices offered on the
// settings page, covering the major trading sessions.
func (s *Service) AvailableZones() []ZoneOption {
	zones := []string{
		"UTC",
		"Europe/London",
		"Europe/Berlin",
		"Europe/Paris",
		"Europe/Zurich",
		"America/New_York",
		"America/Chicago",
		"America/Los_Angeles",
		"Asia/Tokyo",
		"Asia/Hong_Kong",
		"Asia/Singapore",
		"Asia/Shanghai",
		"Australia/Sydney",
	}

	options := make([]ZoneOption, 0, len(zones))
	for _, id := range zones {
		options = append(options, ZoneOption{ID: id, Label: s.DisplayName(id)})
	}
	return options
}
