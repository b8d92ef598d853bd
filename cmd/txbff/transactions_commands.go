package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/brojonat/txbff/client"
	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"
)

func transactionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "transactions",
		Aliases:   []string{"txns", "tx"},
		Usage:     "List transactions for an address through the txbff server",
		ArgsUsage: "ADDRESS",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "jq",
				Usage: "Only show transactions for which this jq expression is truthy (repeatable, all must match)",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output transactions as JSON",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("address is required")
			}
			address := c.Args().Get(0)

			filters, err := compileJQFilters(c.StringSlice("jq"))
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelError, // Only errors to stderr
			}))

			cl := client.NewClient(c.String("server-url"), &http.Client{Timeout: c.Duration("timeout")}, logger)
			txs, err := cl.ListTransactions(context.Background(), address)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			matched := make([]client.Transaction, 0, len(txs))
			for _, tx := range txs {
				ok, err := matchesAll(filters, tx)
				if err != nil {
					logger.Debug("jq filter error", "error", err)
				}
				if ok {
					matched = append(matched, tx)
				}
			}

			if c.Bool("json") {
				data, err := json.MarshalIndent(matched, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal transactions: %w", err)
				}
				fmt.Fprintln(c.App.Writer, string(data))
				return nil
			}

			printTransactions(c.App.Writer, address, matched)
			return nil
		},
	}
}

// compileJQFilters parses and compiles each jq expression.
func compileJQFilters(exprs []string) ([]*gojq.Code, error) {
	compiled := make([]*gojq.Code, len(exprs))
	for i, expr := range exprs {
		query, err := gojq.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq filter %q: %w", expr, err)
		}
		compiled[i], err = gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile jq filter %q: %w", expr, err)
		}
	}
	return compiled, nil
}

// matchesAll reports whether every filter yields a truthy first result for tx.
// A filter that errors or yields nothing does not match.
func matchesAll(filters []*gojq.Code, tx client.Transaction) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}

	// gojq operates on plain JSON values
	data, err := json.Marshal(tx)
	if err != nil {
		return false, err
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return false, err
	}

	for _, code := range filters {
		iter := code.Run(input)
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if err, isErr := v.(error); isErr {
			return false, err
		}
		if !isTruthy(v) {
			return false, nil
		}
	}
	return true, nil
}

// isTruthy follows jq semantics: only false and null are falsy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

func printTransactions(w io.Writer, address string, txs []client.Transaction) {
	fmt.Fprintf(w, "Transactions for %s (%d)\n", address, len(txs))
	for _, tx := range txs {
		fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		fmt.Fprintf(w, "Hash:        %s\n", tx.Hash)
		fmt.Fprintf(w, "From:        %s\n", tx.From)
		fmt.Fprintf(w, "To:          %s\n", tx.To)
		fmt.Fprintf(w, "Amount:      %g\n", tx.Amount)
		fmt.Fprintf(w, "Timestamp:   %d\n", tx.Timestamp)
		fmt.Fprintf(w, "Block:       %s\n", tx.Block)
		fmt.Fprintf(w, "Fee:         %s\n", tx.Fee)
	}
}
