package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// apiClient talks to a running auspex server. The MCP process cannot open
// the Badger store itself while the server holds its directory lock, so
// every tool reads through the HTTP API instead.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// getJSON fetches a path and decodes the response body into out
func (c *apiClient) getJSON(ctx context.Context, path string, out interface{}) error {
	body, err := c.get(ctx, path, "application/json")
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// getText fetches a path and returns the raw body
func (c *apiClient) getText(ctx context.Context, path string) (string, error) {
	body, err := c.get(ctx, path, "text/markdown, text/plain")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *apiClient) get(ctx context.Context, path, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auspex server unreachable at %s (is it running?): %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		// API errors carry a JSON envelope with an error field
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return nil, fmt.Errorf("request failed with HTTP %d", resp.StatusCode)
	}

	return body, nil
}
