package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/guard"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/store"
)

// tokenFunc lets the API client read the token from the session holder,
// which itself depends on the client.
type tokenFunc func() string

func (f tokenFunc) Token() string { return f() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logger.SetupDefault(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	kv, closeKV, err := newKV(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to set up storage: %v", err)
	}
	defer closeKV()
	adapter := store.NewAdapter(kv, lg)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(reg)

	queue := notify.NewQueue(100)
	notifier := notify.NewLogged(queue, lg)

	var holder *session.Holder
	client, err := api.NewClient(api.Config{
		BaseURL:         cfg.APIBaseURL,
		RateLimit:       cfg.APIRateLimit,
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
	}, api.NewHTTPClient(cfg.RequestTimeout), tokenFunc(func() string { return holder.Token() }), lg, api.WithRecorder(collector))
	if err != nil {
		log.Fatalf("failed to create api client: %v", err)
	}
	products := api.NewProductClient(client)
	orders := api.NewOrderClient(client)

	holder = session.NewHolder(api.NewAuthClient(client), adapter, cfg.SessionStorageKey, lg)
	holder.Restore(ctx)

	engine := cart.NewEngine(ctx, adapter, cfg.CartStorageKey, lg, cart.WithRecorder(collector))
	g := guard.New(guard.DefaultPolicy(), notifier, guard.WithRecorder(collector))
	svc := checkout.NewService(engine, holder, orders, notifier, api.UserMessage, lg)

	router := h.NewRouter(h.Handlers{
		Cart:          h.NewCartHandler(engine, products, notifier, cfg.RequestTimeout),
		Session:       h.NewSessionHandler(holder, notifier, cfg.RequestTimeout),
		Guard:         h.NewGuardHandler(g, holder),
		Checkout:      h.NewCheckoutHandler(svc, cfg.RequestTimeout),
		Notifications: h.NewNotificationHandler(queue),
		Products:      h.NewProductHandler(products, notifier, cfg.RequestTimeout),
		Orders:        h.NewOrdersHandler(orders, cfg.RequestTimeout),
		Profile:       h.NewProfileHandler(api.NewUserClient(client), cfg.RequestTimeout),
		Metrics:       metrics.Handler(reg),
	}, g, holder, lg, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		lg.Info("storefront starting", slog.String("port", cfg.HTTPPort), slog.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lg.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("server forced to shutdown", slog.String("error", err.Error()))
	}
	lg.Info("server exited")
}

func newKV(ctx context.Context, cfg *config.Config) (store.KV, func(), error) {
	if cfg.StoreBackend != config.BackendRedis {
		return store.NewMemoryKV(), func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, err
	}
	slog.Info("redis ping succeeded", slog.String("addr", cfg.RedisAddr))
	return store.NewRedisKV(redisClient), func() { redisClient.Close() }, nil
}
