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

	"github.com/redis/go-redis/v9"

	"github.com/leon-morival/cynaMobile/internal/api"
	"github.com/leon-morival/cynaMobile/internal/assistant"
	"github.com/leon-morival/cynaMobile/internal/cart"
	"github.com/leon-morival/cynaMobile/internal/catalog"
	"github.com/leon-morival/cynaMobile/internal/checkout"
	"github.com/leon-morival/cynaMobile/internal/config"
	"github.com/leon-morival/cynaMobile/internal/httpapi"
	"github.com/leon-morival/cynaMobile/internal/metrics"
	"github.com/leon-morival/cynaMobile/internal/payment"
	"github.com/leon-morival/cynaMobile/internal/session"
	"github.com/leon-morival/cynaMobile/internal/storage"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	log.Info("starting storefront", slog.String("env", cfg.Env))

	metrics.Register()

	kv := setupStorage(cfg, log)
	backend := api.New(cfg.Backend.BaseURL, log)

	sessions := session.NewStore(kv, backend, log)
	catalogCache := catalog.NewCache(backend, log)
	carts := cart.NewSynchronizer(backend, sessions, catalogCache, log)
	localCart := cart.NewLocal(kv, log)

	// restore persisted state and warm the caches; none of these block serving
	startupCtx, startupCancel := context.WithTimeout(context.Background(), cfg.HTTP.RequestTimeout)
	go func() {
		defer startupCancel()
		if err := sessions.Load(startupCtx); err != nil {
			log.Warn("session restore incomplete", slog.Any("error", err))
		}
		if err := localCart.Load(startupCtx); err != nil {
			log.Warn("local cart restore failed", slog.Any("error", err))
		}
		if err := catalogCache.Refresh(startupCtx); err != nil {
			log.Warn("initial catalog refresh failed", slog.Any("error", err))
		}
		if err := carts.Refresh(startupCtx); err != nil {
			log.Warn("initial cart refresh failed", slog.Any("error", err))
		}
	}()

	sheet := payment.NewStripeSheet(cfg.Stripe.SecretKey, cfg.Stripe.PaymentMethod, log)
	orchestrator := checkout.NewOrchestrator(backend, sheet, sessions, carts, catalogCache, cfg.Stripe.MerchantName, log)

	var provider assistant.ChatProvider
	if cfg.Gemini.APIKey != "" {
		geminiProvider, err := assistant.NewGeminiProvider(context.Background(), cfg.Gemini.APIKey)
		if err != nil {
			log.Error("failed to initialize assistant provider", slog.Any("error", err))
			os.Exit(1)
		}
		defer geminiProvider.Close()
		provider = geminiProvider
	} else {
		log.Warn("no Gemini API key configured, assistant disabled")
	}
	bridge := assistant.NewBridge(provider, catalogCache, cfg.Lang, log)

	router := httpapi.NewRouter(httpapi.Handlers{
		Session:   httpapi.NewSessionHandler(backend, sessions, carts, cfg.HTTP.RequestTimeout),
		Catalog:   httpapi.NewCatalogHandler(catalogCache, cfg.Lang, cfg.HTTP.RequestTimeout),
		Cart:      httpapi.NewCartHandler(carts, cfg.HTTP.RequestTimeout),
		LocalCart: httpapi.NewLocalCartHandler(localCart, catalogCache, cfg.HTTP.RequestTimeout),
		Checkout:  httpapi.NewCheckoutHandler(orchestrator, cfg.HTTP.RequestTimeout),
		Assistant: httpapi.NewAssistantHandler(bridge, cfg.HTTP.RequestTimeout),
	}, cfg.HTTP.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront listening", slog.String("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server exited")
}

// setupStorage prefers Redis; with no address configured the process falls
// back to the in-memory store and session/cart state does not survive
// restarts.
func setupStorage(cfg config.Config, log *slog.Logger) storage.Store {
	if cfg.Redis.Addr == "" {
		log.Warn("no Redis address configured, using in-memory storage")
		return storage.NewMemoryStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Error("failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	return storage.NewRedisStore(client)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
