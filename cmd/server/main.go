package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/fracton/market-engine/internal/exposure"
	"github.com/fracton/market-engine/internal/market"
	"github.com/fracton/market-engine/internal/metrics"
	"github.com/fracton/market-engine/internal/store"
	"github.com/fracton/market-engine/internal/treasury"
)

func main() {
	godotenv.Load() // optional .env for local development

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	ownerToken := os.Getenv("OWNER_TOKEN")
	if ownerToken == "" {
		slog.Warn("OWNER_TOKEN not set, privileged operations are disabled")
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, 30*time.Second)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Exposure limits ---
	maxPerEvent := envDecimal("MAX_OUT_PER_EVENT", decimal.New(50, 7))
	maxPerProvider := envDecimal("MAX_OUT_PER_PROVIDER", decimal.New(200, 7))
	limiter := exposure.NewLimiter(maxPerEvent, maxPerProvider)

	// --- Treasury ---
	// Single-node deployment: the in-memory ledger stands in for the host
	// ledger's native transfer primitive.
	ts := treasury.NewMemoryTreasury()

	// --- WebSocket hub ---
	hub := market.NewWSHub()
	go hub.Run()

	// --- Market service ---
	svc := market.NewService(st, ts, limiter, ownerToken, hub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"market-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time market updates.
		r.Get("/ws", hub.HandleWS)

		// Event lifecycle.
		r.Get("/events", svc.ListEvents)
		r.Post("/events", svc.CreateEvent)
		r.Get("/events/{eventID}", svc.GetEvent)
		r.Get("/events/{eventID}/odds", svc.GetOdds)
		r.Get("/events/{eventID}/records", svc.GetRecords)
		r.Post("/events/{eventID}/resolve", svc.ResolveEvent)

		// Liquidity.
		r.Post("/events/{eventID}/liquidity", svc.AddLiquidity)
		r.Post("/events/{eventID}/liquidity/remove", svc.RemoveLiquidity)

		// Trading.
		r.Post("/trade/buy", svc.Buy)
		r.Post("/trade/sell", svc.Sell)
		r.Get("/trade/quote", svc.Quote)

		// In/out claim transfers.
		r.Post("/fractions/pull", svc.PullFractions)
		r.Post("/fractions/push", svc.PushFractions)

		// Settlement.
		r.Post("/events/{eventID}/withdraw", svc.Withdraw)

		// Positions and per-actor history.
		r.Get("/positions/{holder}", svc.GetPositions)
		r.Get("/actors/{actor}/records", svc.GetActorRecords)

		// Admin.
		r.Post("/admin/pause", svc.SetPaused)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("market-engine listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down market-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("market-engine stopped")
}

// envDecimal reads a decimal from the environment, falling back to def.
func envDecimal(key string, def decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		slog.Error("invalid decimal env var", "key", key, "value", v)
		os.Exit(1)
	}
	return d
}
