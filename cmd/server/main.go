package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/harshraj574-delta/Routing-Accenture-sub001/config"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/handler"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/middleware"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/repository"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/internal/service"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/cache"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/db"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/osrm"
	"github.com/harshraj574-delta/Routing-Accenture-sub001/pkg/solver"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// ── Connect to PostgreSQL ───────────────────────────
	pgPool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	defer pgPool.Close()
	log.Println("✓ PostgreSQL connected")

	// ── Connect to Redis ────────────────────────────────
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ── Road service + solver clients ───────────────────
	roadClient := osrm.NewClient(cfg.OSRM.BaseURL, osrm.WithCache(cfg.OSRM.CacheSize))
	solverRunner := solver.NewProcessRunner(cfg.Solver.Binary, cfg.Solver.Timeout)

	// ── Initialize layers ───────────────────────────────
	guardPred := service.GuardFlagOnly
	if cfg.Planner.EnforceGuardTimings {
		guardPred = service.GuardWithNightWindow
	}
	planner := service.NewPlanner(roadClient, solverRunner, guardPred)
	recalc := service.NewRecalculator(roadClient)
	planRepo := repository.NewPlanRepository(pgPool, redisClient)

	planHandler := handler.NewPlanHandler(planner, planRepo)
	recalcHandler := handler.NewRecalculateHandler(recalc)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()

	// Health check endpoint.
	router.HandleFunc("/health", healthHandler(pgPool, redisClient, roadClient)).Methods(http.MethodGet)

	// API v1 routes.
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Handle("/routes/plan",
		withTimeout(cfg.Planner.RequestTimeout, http.HandlerFunc(planHandler.GeneratePlan)),
	).Methods(http.MethodPost)
	api.HandleFunc("/routes/plan/{uuid}", planHandler.GetPlan).Methods(http.MethodGet)
	api.HandleFunc("/routes/recalculate", recalcHandler.Recalculate).Methods(http.MethodPost)

	// Wrap with logging, panic recovery and CORS.
	root := middleware.CORS(middleware.Recoverer(middleware.RequestLogger(router)))

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      root,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in a goroutine so we can listen for shutdown signals.
	go func() {
		log.Printf("🚀 Server listening on %s", cfg.Server.ServerAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}

// withTimeout bounds a request with an overall planning budget. The
// planner honors cancellation and answers with the routes committed
// so far.
func withTimeout(d time.Duration, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// healthHandler returns an HTTP handler that checks PostgreSQL, Redis
// and the road routing service.
func healthHandler(pgPool *pgxpool.Pool, redisClient *redis.Client, road *osrm.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Services: make(map[string]string),
		}

		if err := db.HealthCheck(r.Context(), pgPool); err != nil {
			resp.Status = "degraded"
			resp.Services["postgres"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["postgres"] = "healthy"
		}

		if err := cache.HealthCheck(r.Context(), redisClient); err != nil {
			resp.Status = "degraded"
			resp.Services["redis"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["redis"] = "healthy"
		}

		if road.IsAvailable(r.Context()) {
			resp.Services["osrm"] = "healthy"
		} else {
			resp.Status = "degraded"
			resp.Services["osrm"] = "unhealthy: probe failed"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
