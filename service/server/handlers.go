package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/brojonat/txbff/service/config"
	"github.com/brojonat/txbff/service/metrics"
	"github.com/brojonat/txbff/service/transactions"
	"github.com/brojonat/txbff/service/upstream"
)

const (
	msgMethodNotAllowed   = "Method not allowed"
	msgInvalidAddress     = "Valid address is required"
	msgFetchFailed        = "Failed to fetch transactions"
	msgUnknownError       = "An unknown error occurred"
	msgUpstreamURLMissing = config.UpstreamURLEnv + " environment variable is not set"
)

var errUpstreamURLMissing = errors.New(msgUpstreamURLMissing)

// transactionFetcher is the upstream call made once per request.
type transactionFetcher interface {
	FetchTransactions(ctx context.Context, baseURL, address string) (*upstream.Response, error)
}

// transactionsResponse is the success envelope.
type transactionsResponse struct {
	Success      bool                       `json:"success"`
	Transactions []transactions.Transaction `json:"transactions"`
}

// failureResponse is the error envelope.
type failureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleTransactions returns a handler that proxies an address lookup to the
// upstream transaction service and reshapes the records for the frontend.
// GET /api/transactions?address=ADDRESS
func handleTransactions(cfg *config.Config, fetcher transactionFetcher, placeholders transactions.Placeholders, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	placeholders = transactions.WithRecorder(placeholders, m.RecordPlaceholder)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeFailure(w, msgMethodNotAllowed, http.StatusMethodNotAllowed)
			return
		}

		// exactly one non-empty value
		values := r.URL.Query()["address"]
		if len(values) != 1 || values[0] == "" {
			writeFailure(w, msgInvalidAddress, http.StatusBadRequest)
			return
		}
		address := values[0]

		resp, err := fetchTransactions(r.Context(), cfg, fetcher, address)
		if err != nil {
			internalError(w, logger, address, err)
			return
		}

		if !resp.Success {
			message := resp.Message
			if message == "" {
				message = msgFetchFailed
			}
			writeFailure(w, message, http.StatusBadRequest)
			return
		}

		txs, err := transactions.Map(resp.Transactions, placeholders)
		if err != nil {
			var mapErr *transactions.MappingError
			if errors.As(err, &mapErr) {
				m.RecordMappingError(mapErr.Field)
			}
			internalError(w, logger, address, err)
			return
		}

		m.RecordTransactionsMapped(len(txs))
		writeJSON(w, transactionsResponse{
			Success:      true,
			Transactions: txs,
		}, http.StatusOK)
	})
}

// fetchTransactions reads the upstream URL for this request and calls it.
func fetchTransactions(ctx context.Context, cfg *config.Config, fetcher transactionFetcher, address string) (*upstream.Response, error) {
	if cfg == nil || cfg.UpstreamURL == "" {
		return nil, errUpstreamURLMissing
	}
	resp, err := fetcher.FetchTransactions(ctx, cfg.UpstreamURL, address)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("upstream returned an empty response")
	}
	return resp, nil
}

// internalError logs err and writes it as a 500 failure envelope.
func internalError(w http.ResponseWriter, logger *slog.Logger, address string, err error) {
	logger.Error("error fetching transactions", "address", address, "error", err)

	message := err.Error()
	if message == "" {
		message = msgUnknownError
	}
	writeFailure(w, message, http.StatusInternalServerError)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeFailure writes a JSON failure envelope.
func writeFailure(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, failureResponse{
		Success: false,
		Message: message,
	}, statusCode)
}
