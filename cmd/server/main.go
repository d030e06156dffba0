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
	"github.com/go-chi/render"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/simple-sharelink/internal/api"
	"github.com/tendant/simple-sharelink/pkg/sharelink"
	"github.com/tendant/simple-sharelink/pkg/sharelink/config"
	"github.com/tendant/simple-sharelink/pkg/sharelink/oss"
)

func main() {
	var envCfg EnvConfig
	if err := cleanenv.ReadEnv(&envCfg); err != nil {
		slog.Error("Failed to read environment configuration", "err", err)
		os.Exit(1)
	}

	serverConfig, err := loadServerConfig(envCfg)
	if err != nil {
		slog.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	svc, err := serverConfig.BuildService(ctx)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	listingClient, err := serverConfig.BuildListingClient()
	if err != nil {
		slog.Error("Failed to build listing client", "err", err)
		os.Exit(1)
	}

	server := NewHTTPServer(svc, listingClient, serverConfig)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: server.Routes(),
	}

	// Periodic sweep of expired or exhausted links.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	if serverConfig.SweepInterval > 0 {
		go runSweep(sweepCtx, svc, serverConfig.SweepInterval)
	}

	go func() {
		slog.Info("Share link server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"provider", serverConfig.Provider,
			"ledger", serverConfig.LedgerType)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}

func runSweep(ctx context.Context, svc sharelink.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := svc.CleanupLinks(ctx)
			if err != nil {
				slog.Error("Periodic cleanup failed", "err", err)
				continue
			}
			if result.LedgerDeleted > 0 || result.CacheEvicted > 0 {
				slog.Info("Periodic cleanup",
					"ledger_deleted", result.LedgerDeleted,
					"cache_evicted", result.CacheEvicted)
			}
		}
	}
}

// HTTPServer wires the sharelink service and API handlers together.
type HTTPServer struct {
	service sharelink.Service
	listing *oss.Client
	config  *config.ServerConfig
	auth    *api.Auth
}

func NewHTTPServer(service sharelink.Service, listing *oss.Client, serverConfig *config.ServerConfig) *HTTPServer {
	return &HTTPServer{
		service: service,
		listing: listing,
		config:  serverConfig,
		auth: api.NewAuth(
			serverConfig.Auth.JWTSecret,
			serverConfig.Auth.AdminUsername,
			serverConfig.Auth.AdminPassword,
			serverConfig.Auth.TokenTTL,
		),
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware(s.config.CORSAllowedOrigins))

	r.Get("/healthz", s.handleHealth)
	r.Post("/login", s.auth.Login)

	// Operator routes require an admin token.
	r.Group(func(r chi.Router) {
		r.Use(s.auth.Verifier())
		r.Use(s.auth.Authenticator)
		r.Use(api.RequireAdmin)

		r.Mount("/", api.NewLinkHandler(s.service).Routes())
		r.Mount("/storage", api.NewBucketHandler(s.listing).Routes())
	})

	// Public redemption route; no auth, the link ID is the capability.
	downloadPrefix := s.config.DownloadPrefix
	if downloadPrefix == "" {
		downloadPrefix = "download"
	}
	r.Mount("/"+downloadPrefix, api.NewDownloadHandler(s.service).Routes())

	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "ok")
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*")
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
