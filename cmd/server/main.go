// Command server runs the Tracehub notification API and its River workers.
//
//	server             serve until SIGINT or SIGTERM
//	server -check      load and validate configuration, then exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tracehub.io/tracehub/internal/app"
	"tracehub.io/tracehub/internal/config"
	"tracehub.io/tracehub/internal/pkg/logger"
)

const readHeaderTimeout = 10 * time.Second

func main() {
	check := flag.Bool("check", false, "validate configuration and exit")
	flag.Parse()

	if err := run(*check); err != nil {
		fmt.Fprintf(os.Stderr, "tracehub: %v\n", err)
		os.Exit(1)
	}
}

func run(checkOnly bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if checkOnly {
		fmt.Println("configuration ok")
		return nil
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer application.Shutdown()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           application.Router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	logger.Info("tracehub listening",
		zap.String("addr", srv.Addr),
		zap.String("log_level", logger.Level().String()),
		zap.Bool("dispatch_async", cfg.Notification.DispatchAsync),
		zap.Bool("sms_enabled", cfg.Notification.SMSEnabled),
		zap.Bool("contract_validation", cfg.Server.ValidateContract),
	)
	return serve(ctx, srv, cfg.Server.ShutdownTimeout)
}

// serve runs srv until ctx is cancelled or the listener fails, then drains
// in-flight requests for at most grace.
func serve(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("drain http server: %w", err)
	}
	logger.Info("http server stopped")
	return nil
}
