package common

import (
	"fmt"
	"net/url"
	"strings"
)

// DatePlaceholder is the token in the configured source URL that is replaced
// with the requested calendar date (YYYY-MM-DD).
const DatePlaceholder = "{date}"

// BuildCalendarURL derives the calendar page URL for a specific date.
// The configured source URL may contain a {date} placeholder; when present it is
// replaced with the requested date, otherwise the date is appended as a query
// parameter so fixed URLs still work.
func BuildCalendarURL(sourceURL string, date string) (string, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return "", fmt.Errorf("calendar source URL is empty")
	}

	if strings.Contains(sourceURL, DatePlaceholder) {
		return strings.ReplaceAll(sourceURL, DatePlaceholder, date), nil
	}

	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return "", fmt.Errorf("invalid calendar source URL %s: %w", sourceURL, err)
	}

	query := parsed.Query()
	query.Set("date", date)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// IsTestURL returns true if the URL points at a local test host.
// Test URLs are used by the scraping tests with an httptest server.
func IsTestURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())
	return host == "localhost" || host == "127.0.0.1" || host == "::1" || host == "0.0.0.0"
}

// ValidateSourceURL checks that a calendar source URL is usable.
// Local test hosts are rejected in production mode.
func ValidateSourceURL(rawURL string, allowTestURLs bool) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid source URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("source URL must use http or https, got %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("source URL has no host")
	}

	if !allowTestURLs && IsTestURL(rawURL) {
		return fmt.Errorf("test URL %s is not allowed in production mode", rawURL)
	}

	return nil
}
