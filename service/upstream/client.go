package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brojonat/txbff/service/metrics"
	"github.com/brojonat/txbff/service/transactions"
)

// TransactionsPath is the upstream endpoint queried for an address's transactions.
const TransactionsPath = "/api/transactions"

// Response is the envelope returned by the upstream transaction service.
type Response struct {
	Success      bool                               `json:"success"`
	Transactions []transactions.UpstreamTransaction `json:"transactions,omitempty"`
	Message      string                             `json:"message,omitempty"`
}

// StatusError is returned when the upstream answers with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// Client calls the upstream transaction service.
type Client struct {
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates a new upstream client. A nil httpClient means a client with
// no explicit timeout. m may be nil.
func NewClient(httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		httpClient: httpClient,
		metrics:    m,
		logger:     logger,
	}
}

// FetchTransactions issues a single GET for the address's transactions.
// The returned Response may report Success == false; only transport and
// protocol failures are returned as errors.
func (c *Client) FetchTransactions(ctx context.Context, baseURL, address string) (*Response, error) {
	u := TransactionsURL(baseURL, address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	statusCode := 0
	defer metrics.Timer(time.Now(), func(d float64) {
		c.metrics.RecordUpstreamRequest(statusCode, d)
	})()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()
	statusCode = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode upstream response: %w", err)
	}

	c.logger.Debug("upstream transactions fetched",
		"address", address,
		"success", out.Success,
		"count", len(out.Transactions),
	)

	return &out, nil
}

// TransactionsURL builds the upstream URL for an address. The address is
// escaped as a URL component, so a space becomes %20.
func TransactionsURL(baseURL, address string) string {
	return strings.TrimSuffix(baseURL, "/") + TransactionsPath + "?address=" + escapeComponent(address)
}

// escapeComponent percent-encodes everything except A-Z a-z 0-9 - _ . ~.
// The sub-delims ! ' ( ) * are encoded too, which any query parser decodes
// back to the same characters.
func escapeComponent(s string) string {
	// QueryEscape writes spaces as '+' and escapes a literal '+' as %2B,
	// so every remaining '+' is a space.
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
