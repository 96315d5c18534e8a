package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"restaurant-review-api/config"
	"restaurant-review-api/handlers"
	"restaurant-review-api/logging"
	"restaurant-review-api/routes"
	"restaurant-review-api/services"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logging.New(os.Stderr, "error", "text").Error(context.Background(), "loading config", "error", err)
		os.Exit(2)
	}

	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.GinMode)

	s, err := config.OpenStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close(context.Background())

	h := handlers.New(
		services.NewUserService(s, log),
		services.NewRestaurantService(s, log),
		s,
		cfg.DBDriver,
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: routes.NewRouter(h, log),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server running", "addr", srv.Addr, "store", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
