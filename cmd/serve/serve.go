// Package serve runs the HTTP API
package serve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fjacquet/stmt-categorizer/cmd/common"
	"fjacquet/stmt-categorizer/cmd/root"
	"fjacquet/stmt-categorizer/internal/logging"
)

const shutdownTimeout = 15 * time.Second

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the categorization API over HTTP",
	Long: `Serve the categorization API: POST /api/categorize, POST /api/import,
GET /api/categories and the /api/patterns endpoints.`,
	RunE: serveFunc,
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
}

func serveFunc(cmd *cobra.Command, args []string) error {
	c, err := common.RequireContainer(root.GetContainer())
	if err != nil {
		return err
	}
	if addr == "" {
		addr = c.GetConfig().Server.Addr
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, ln, c.NewAPIServer().Handler(), c.GetLogger())
}

// Run serves handler on ln until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, ln net.Listener, handler http.Handler, logger logging.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logging.Field{Key: logging.FieldAddr, Value: ln.Addr().String()})
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
