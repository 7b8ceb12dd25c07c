package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/orgtower/orgtower/internal/server"
	"github.com/orgtower/orgtower/pkg/editor"
	"github.com/orgtower/orgtower/pkg/store"
)

// shutdownTimeout bounds graceful shutdown on interrupt.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command exposing an editing session over
// HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve [structure.json]",
		Short: "Serve an organization chart editing session over HTTP",
		Long: `Serve an organization chart editing session over HTTP.

The server loads the organization file once and keeps the working copy in
memory; export the session through the API to persist changes. Snapshots are
stored in the configured snapshot backend.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			return c.runServe(cmd.Context(), input, addr, noCache)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable layout caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, input, addr string, noCache bool) error {
	root, path, err := loadModel(input)
	if err != nil {
		return err
	}

	engine, cleanup, err := c.newEngine(ctx, noCache)
	if err != nil {
		return err
	}
	defer cleanup()

	ed, err := editor.New(ctx, root, engine,
		editor.WithLogger(c.Logger),
		editor.WithDirection(c.direction()),
	)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	snapshots, err := c.newSnapshots(ctx)
	if err != nil {
		c.Logger.Warn("snapshot store unavailable, snapshots disabled", "error", err)
		snapshots = nil
	}
	if snapshots != nil {
		defer closeSnapshots(snapshots)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(ed, snapshots, c.Logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("serving", "addr", addr, "file", path)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return ctx.Err()
}

func closeSnapshots(s store.Snapshots) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.Close(ctx)
}
