package interfaces

import "context"

// CalendarService - interface for daily calendar retrieval
type CalendarService interface {
	// FetchAndStore retrieves the calendar for a date and persists the
	// normalized events. Returns 0 without touching the network when
	// events already exist for the date.
	FetchAndStore(ctx context.Context, date string) (int, error)

	// Close releases the browser session if one was started
	Close() error
}
