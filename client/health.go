package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Health calls the service's /health endpoint. It fails unless the service
// answers 200 with the body "OK".
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(c.baseURL, "/")+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if got := strings.TrimSpace(string(body)); got != "OK" {
		return fmt.Errorf("unexpected health body %q", got)
	}
	return nil
}
