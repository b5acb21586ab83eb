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

	"github.com/vichambarde/serverroom/internal"
	"github.com/vichambarde/serverroom/internal/cache"
	"github.com/vichambarde/serverroom/internal/config"
	"github.com/vichambarde/serverroom/internal/notify"
	"github.com/vichambarde/serverroom/internal/stock"
	"github.com/vichambarde/serverroom/internal/store/memory"
	"github.com/vichambarde/serverroom/internal/store/postgres"
	"github.com/vichambarde/serverroom/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load and validate configuration
	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:     cfg.TracingEnabled,
		ServiceName: "serverroom",
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		Writer:      os.Stdout,
	})
	if err != nil {
		log.Fatalf("Tracing setup failed: %v", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Store error: %v", err)
	}

	itemCache, err := cache.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.ItemsCacheTTL)
	if err != nil {
		log.Printf("[Cache] redis unavailable, serving items uncached: %v", err)
	}

	metrics := internal.NewMetrics()

	var sender notify.Sender = notify.LogSender{}
	if cfg.MailEnabled() {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.EmailUser,
			Password: cfg.EmailPass,
			Timeout:  cfg.NotifyTimeout,
		})
	} else {
		log.Println("[Notify] SMTP not configured, notifications are logged only")
	}
	dispatcher := notify.NewDispatcher(sender,
		notify.WithTimeout(cfg.NotifyTimeout),
		notify.WithMaxTries(uint(cfg.NotifyMaxTries)),
		notify.WithResultFunc(metrics.NotificationResult),
	)

	workflow := stock.NewWorkflow(store, dispatcher, cfg.HODEmail, stock.WithRecorder(metrics))

	srv, err := internal.NewServer(cfg, store, workflow, itemCache, metrics)
	if err != nil {
		log.Fatalf("Server setup failed: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Println("Starting server room inventory API...")
	log.Printf("Store driver: %s", cfg.StoreDriver)
	log.Printf("JWT Issuer: %s", cfg.JWTIssuer)
	log.Printf("JWT Audience: %s", cfg.JWTAudience)
	log.Printf("JWT Expiry: %v", cfg.JWTExpiry)
	log.Printf("Listening on %s", cfg.Addr())

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-errCh:
		if err != nil {
			log.Printf("Server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	// Pending notifications are flushed before the store goes away.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Printf("[Notify] %v", err)
	}
	if err := srv.Close(shutdownCtx); err != nil {
		log.Printf("Server close: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Tracing shutdown: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (stock.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Println("[Store] using in-memory store; data is lost on restart")
		return memory.New(), nil
	default:
		s, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.StoreTimeout)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	}
}
