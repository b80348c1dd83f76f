package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"grouporder/internal/api"
	"grouporder/internal/auth"
	"grouporder/internal/backend"
	"grouporder/internal/middleware"
	"grouporder/internal/notify"
	"grouporder/internal/service"
	"grouporder/internal/stock"
	"grouporder/internal/storage/sqlite"
	"grouporder/pkg/logging"
)

const (
	defaultBackendTimeout = 30 * time.Second
	defaultStockTimeout   = 10 * time.Second
	tokenDuration         = 24 * time.Hour
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using fallback", "key", key, "value", value)
		return fallback
	}
	return d
}

func main() {
	logging.Setup()

	addr := getEnv("ADDR", ":8080")
	dbPath := getEnv("DB_PATH", "./data/grouporder.db")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET must be set")
		os.Exit(1)
	}
	stockURL := getEnv("STOCK_URL", "http://localhost:9001/stock")
	backendURL := getEnv("BACKEND_URL", "http://localhost:9002/orders")

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "database", dbPath)

	// Notifications are best effort; without a broker the system runs with a
	// noop notifier.
	var notifier notify.Notifier = notify.Noop{}
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		amqpNotifier, err := notify.Dial(amqpURL)
		if err != nil {
			slog.Warn("notification broker unavailable, notifications disabled", "error", err)
		} else {
			defer amqpNotifier.Close()
			notifier = amqpNotifier
			slog.Info("notification broker connected")
		}
	}

	stockProvider := stock.NewHTTPProvider(stockURL, getEnvDuration("STOCK_TIMEOUT", defaultStockTimeout))
	backendClient := backend.NewHTTPClient(backendURL, getEnvDuration("BACKEND_TIMEOUT", defaultBackendTimeout))
	jwtManager := auth.NewJWTManager(jwtSecret, tokenDuration)

	handler := api.NewHandler(
		service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager),
		service.NewGroupOrderService(store, stockProvider, backendClient, notifier),
		service.NewParticipantOrderService(store, stockProvider, notifier),
	)
	mux := api.NewRouter(handler, jwtManager)

	// h2c allows HTTP/2 without TLS for clients behind the ingress.
	h2cHandler := h2c.NewHandler(middleware.Logging(mux), &http2.Server{})

	server := &http.Server{
		Addr:              addr,
		Handler:           h2cHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
