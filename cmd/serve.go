package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/johntango/milonga/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the plan API over HTTP until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	p, assembler, store, err := r.buildEngine()
	if err != nil {
		return err
	}
	plans, err := r.openPlans()
	if err != nil {
		return err
	}

	api := server.NewAPI(store, assembler, p, plans, r.config.Plan, r.logger)
	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	api.Register(router)

	host := cmd.String("host")
	if host == "" {
		host = r.config.Server.Host
	}
	port := cmd.Int("port")
	if port == 0 {
		port = r.config.Server.Port
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("serving plan API at %v", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		r.logger.Info("shutting down", "signal", sig)
	case <-ctx.Done():
		r.logger.Info("shutting down", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}
	return nil
}
