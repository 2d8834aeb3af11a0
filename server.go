package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HMB3/AUS-Land-Clearing/api"
	"github.com/HMB3/AUS-Land-Clearing/db"
)

// serveReports runs the report/API HTTP server until interrupted.
func serveReports(results *db.DB, listen string) error {
	apiServer := api.NewServer(results)
	mux := apiServer.ServeMux()
	results.AttachAdminRoutes(mux)

	srv := &http.Server{
		Addr:    listen,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("report server listening on %s", listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("received %v, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
