// Command devserver serves the portal pages from a local directory for
// presenting and editing slides.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mo-amir99/training-portal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		port     int
		dir      string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:          "devserver",
		Short:        "Serve the training portal pages locally",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			if info, err := os.Stat(abs); err != nil || !info.IsDir() {
				return fmt.Errorf("%s is not a directory", abs)
			}

			log, err := logger.NewConsole(logLevel, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			gin.SetMode(gin.ReleaseMode)

			addr := net.JoinHostPort("", strconv.Itoa(port))
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://localhost:%d\n", abs, port)
			fmt.Fprintf(cmd.OutOrStdout(), "  Student portal: http://localhost:%d/PowerBI_Training_Portal.html\n", port)
			fmt.Fprintf(cmd.OutOrStdout(), "  Admin portal:   http://localhost:%d/Admin_Portal.html\n", port)
			return serve(cmd.Context(), addr, newRouter(abs, log), log)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8000, "Port to listen on")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to serve")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")
	return cmd
}

func serve(ctx context.Context, addr string, handler http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
