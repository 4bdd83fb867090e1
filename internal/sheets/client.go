package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ms-landing/internal/logger"
	"ms-landing/internal/models"
)

var ErrNotConfigured = errors.New("spreadsheet webhook URL not configured")

// Client posts purchase rows to the spreadsheet automation script.
type Client struct {
	url    string
	client *http.Client
	logger *logger.Logger
}

func NewClient(url string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: log,
	}
}

// Forward sends one record. Any non-2xx answer is an error; the script's
// response body is only logged.
func (c *Client) Forward(ctx context.Context, record models.SheetRecord) error {
	if c.url == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode sheet record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create sheets request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("SHEETS", fmt.Sprintf("Request to spreadsheet script failed: %v", err))
		return fmt.Errorf("sheets request failed: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.logger.Error("SHEETS", fmt.Sprintf("Failed to close sheets response body: %v", err))
		}
	}(resp.Body)

	text, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("SHEETS", fmt.Sprintf("Spreadsheet script returned %d: %s", resp.StatusCode, text))
		return fmt.Errorf("sheets returned status: %d", resp.StatusCode)
	}

	c.logger.Info("SHEETS", fmt.Sprintf("Recorded purchase for %s (%s): %s", record.Email, record.Produto, text))
	return nil
}
