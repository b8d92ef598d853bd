package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brojonat/txbff/service/upstream"
	"github.com/urfave/cli/v2"
)

func upstreamCommand() *cli.Command {
	return &cli.Command{
		Name:      "upstream",
		Usage:     "Fetch the raw upstream response for an address, bypassing the txbff server",
		ArgsUsage: "ADDRESS",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("address is required")
			}
			address := c.Args().Get(0)

			upstreamURL := c.String("upstream-url")
			if upstreamURL == "" {
				return fmt.Errorf("upstream-url is required (set PYTHON_API_URL env var or use --upstream-url)")
			}

			cl := upstream.NewClient(&http.Client{Timeout: c.Duration("timeout")}, nil, nil)
			resp, err := cl.FetchTransactions(context.Background(), upstreamURL, address)
			if err != nil {
				return fmt.Errorf("upstream request to %s failed: %w", upstream.TransactionsURL(upstreamURL, address), err)
			}

			data, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal response: %w", err)
			}
			fmt.Fprintln(c.App.Writer, string(data))
			return nil
		},
	}
}
