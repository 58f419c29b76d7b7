package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vovakirdan/tui-flappy/internal/storage"
)

// Client reads the score table from a running server.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client for the server at baseURL
// (e.g. "http://localhost:8080"). A nil client gets a 10 second timeout.
func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), client: client}
}

// SaveScoreURL returns the submission endpoint for baseURL.
func SaveScoreURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + PathSaveScore
}

// TopScores fetches up to limit best runs.
func (c *Client) TopScores(ctx context.Context, limit int) ([]storage.ScoreEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var resp scoresResponse
	if err := c.get(ctx, PathScores+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Scores, nil
}

// Stats fetches aggregate statistics.
func (c *Client) Stats(ctx context.Context) (*storage.Stats, error) {
	var stats storage.Stats
	if err := c.get(ctx, PathStats, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("server: cannot build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("server: request failed: %w", err)
	}
	defer resp.Body.Close()

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if resp.StatusCode != http.StatusOK {
		var msg messageResponse
		//nolint:errcheck // Message is only decoration for the error
		json.NewDecoder(body).Decode(&msg)
		return fmt.Errorf("server: HTTP error, status %d: %s", resp.StatusCode, msg.Message)
	}

	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("server: cannot decode response: %w", err)
	}
	return nil
}
