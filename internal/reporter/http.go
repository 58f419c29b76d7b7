package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vovakirdan/tui-flappy/internal/core"
)

// HTTPSink posts score records as JSON to a score endpoint.
type HTTPSink struct {
	url    string
	client *http.Client
}

// NewHTTPSink creates a sink for the endpoint at url. A nil client gets a
// default one with a 10 second timeout.
func NewHTTPSink(url string, client *http.Client) *HTTPSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSink{url: url, client: client}
}

// Send posts rec. Any non-2xx response is an error.
func (h *HTTPSink) Send(ctx context.Context, rec core.ScoreRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("reporter: cannot encode score: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("reporter: cannot build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("reporter: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		//nolint:errcheck // Message is only decoration for the error
		json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&msg)
		return fmt.Errorf("reporter: HTTP error, status %d: %s", resp.StatusCode, msg.Message)
	}

	//nolint:errcheck // Drain so the connection can be reused
	io.Copy(io.Discard, resp.Body)
	return nil
}
