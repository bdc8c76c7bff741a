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

	"github.com/GHULAM-1/supreme-drive-suite-sub000/config"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/distance"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/handler"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/middleware"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/notify"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/payment"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/pricing"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/repository"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/routing"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/wizard"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/pkg/cache"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/pkg/db"
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

	// ── Connect to NATS ─────────────────────────────────
	dispatcher, err := notify.Connect(cfg.Nats.URL, cfg.Nats.EnquirySubject, cfg.Nats.BookingSubject)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}
	defer dispatcher.Close()
	log.Println("✓ NATS connected")

	// ── Initialize layers ───────────────────────────────
	refRepo := repository.NewReferenceRepository(pgPool, redisClient)
	bookingRepo := repository.NewBookingRepository(pgPool)

	routingClient := routing.NewClient(cfg.Routing.BaseURL, cfg.Routing.Timeout)
	paymentClient := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.APIKey, cfg.Payment.Timeout)

	sessions := wizard.NewSessions(func() wizard.Deps {
		return wizard.Deps{
			Reference: refRepo,
			Store:     bookingRepo,
			Payments:  paymentClient,
			Notifier:  dispatcher,
			Distance:  distance.New(routingClient),
			Pricing:   pricing.Config{WaitRatePerHour: cfg.Pricing.WaitRatePerHour},
		}
	})

	wizardHandler := handler.NewWizardHandler(sessions)
	protectionHandler := handler.NewProtectionHandler(sessions)

	// Periodically drop abandoned sessions.
	go func() {
		for range time.Tick(15 * time.Minute) {
			sessions.Sweep()
		}
	}()

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()

	// Health check endpoint.
	router.HandleFunc("/health", healthHandler(pgPool, redisClient, dispatcher)).Methods(http.MethodGet)

	// API v1 routes.
	api := router.PathPrefix("/api/v1").Subrouter()
	// Wizard session lifecycle
	api.HandleFunc("/wizard", wizardHandler.CreateSession).Methods(http.MethodPost)
	api.HandleFunc("/wizard/{session_id}", wizardHandler.GetState).Methods(http.MethodGet)
	api.HandleFunc("/wizard/{session_id}", wizardHandler.Abandon).Methods(http.MethodDelete)
	// Draft edits
	api.HandleFunc("/wizard/{session_id}/fields", wizardHandler.PatchFields).Methods(http.MethodPatch)
	api.HandleFunc("/wizard/{session_id}/extras", wizardHandler.SetExtra).Methods(http.MethodPost)
	api.HandleFunc("/wizard/{session_id}/coordinates", wizardHandler.SetCoordinates).Methods(http.MethodPost)
	// Step transitions and submission
	api.HandleFunc("/wizard/{session_id}/advance", wizardHandler.Advance).Methods(http.MethodPost)
	api.HandleFunc("/wizard/{session_id}/back", wizardHandler.Back).Methods(http.MethodPost)
	api.HandleFunc("/wizard/{session_id}/submit", wizardHandler.Submit).Methods(http.MethodPost)
	// Close-protection sub-flow
	api.HandleFunc("/wizard/{session_id}/protection/open", protectionHandler.Open).Methods(http.MethodPost)
	api.HandleFunc("/wizard/{session_id}/protection/fields", protectionHandler.PatchFields).Methods(http.MethodPatch)
	api.HandleFunc("/wizard/{session_id}/protection/submit", protectionHandler.Submit).Methods(http.MethodPost)
	api.HandleFunc("/wizard/{session_id}/protection/cancel", protectionHandler.Cancel).Methods(http.MethodPost)
	api.HandleFunc("/wizard/{session_id}/protection", protectionHandler.Disable).Methods(http.MethodDelete)

	// Wrap with rate limiting and CORS so the website front end can call
	// the API without letting a misbehaving client hammer it.
	wrapped := middleware.CORS(
		middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateBurst)(
			middleware.RequestLogger(middleware.Recoverer(router))))

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      wrapped,
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

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// healthHandler returns an HTTP handler that checks PG, Redis, and NATS
// connectivity.
func healthHandler(pgPool *pgxpool.Pool, redisClient *redis.Client, dispatcher *notify.Dispatcher) http.HandlerFunc {
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

		if !dispatcher.Healthy() {
			resp.Status = "degraded"
			resp.Services["nats"] = "unhealthy: disconnected"
		} else {
			resp.Services["nats"] = "healthy"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
