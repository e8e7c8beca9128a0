package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/plan/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planner views as a read-only JSON API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Address to listen on (default server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := openEnv(os.Stderr)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := e.signIn(ctx); err != nil {
		return err
	}
	filters, err := e.filters()
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = e.cfg.Server.Addr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(e.planner, filters),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
