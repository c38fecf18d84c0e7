package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/internal/api"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		graphTTL time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph HTTP API",
		Long: `Serve the graph HTTP API.

Clients POST a graph document to /graphs, receive a handle, and query
traversals, analyses, and renders against it. Graphs live in memory and
expire after the TTL; nothing is persisted.

Address and TTL default to the [serve] section of cellgraph.toml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Serve.Addr
			}
			if graphTTL == 0 {
				graphTTL = c.Config.Serve.GraphTTL.Duration()
			}
			return c.runServe(cmd.Context(), addr, graphTTL)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config, \":8080\")")
	cmd.Flags().DurationVar(&graphTTL, "graph-ttl", 0, "how long uploaded graphs stay resident (default from config, 1h)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, graphTTL time.Duration) error {
	server := api.NewServer(api.Config{
		GraphTTL: graphTTL,
		Logger:   c.Logger,
	})
	defer server.Close()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
