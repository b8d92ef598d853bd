package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/brojonat/txbff/client"
	"github.com/urfave/cli/v2"
)

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check that the txbff server answers on /health",
		Action: func(c *cli.Context) error {
			serverURL := c.String("server-url")
			if serverURL == "" {
				return fmt.Errorf("server-url is required (set SERVER_URL env var or use --server-url)")
			}

			cl := client.NewClient(serverURL, &http.Client{Timeout: c.Duration("timeout")}, nil)
			start := time.Now()
			if err := cl.Health(context.Background()); err != nil {
				return fmt.Errorf("%s: %w", serverURL, err)
			}
			fmt.Fprintf(c.App.Writer, "%s healthy in %s\n", serverURL, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
