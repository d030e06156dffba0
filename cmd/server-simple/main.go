package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
	"github.com/tendant/simple-sharelink/internal/api"
	"github.com/tendant/simple-sharelink/pkg/sharelink"
	"github.com/tendant/simple-sharelink/pkg/sharelink/oss"
	memoryrepo "github.com/tendant/simple-sharelink/pkg/sharelink/repo/memory"
)

// A minimal deployment: in-memory ledger, native OSS signing, and API-key
// protected management routes. Links do not survive a restart; use
// cmd/server with a postgres ledger when durability matters.

type Config struct {
	OSS          OSSConfig
	PublicURL    string        `env:"PUBLIC_BASE_URL" env-default:"http://localhost:4000"`
	ExpiresIn    time.Duration `env:"DEFAULT_EXPIRY" env-default:"1h"`
	ApiKeySHA256 string        `env:"API_KEY_SHA256" env-default:"1"`
}

type OSSConfig struct {
	AccessKeyID     string `env:"OSS_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"OSS_ACCESS_KEY_SECRET"`
	Bucket          string `env:"OSS_BUCKET"`
	Endpoint        string `env:"OSS_ENDPOINT" env-default:"oss-cn-hangzhou.aliyuncs.com"`
}

func main() {
	// Load configuration
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}
	apiKeyConfig := middleware.ApiKeyConfig{
		APIKeys: map[string]string{
			"key1": config.ApiKeySHA256,
		},
	}

	signer := oss.NewV1Signer(oss.Credentials{
		AccessKeyID:     config.OSS.AccessKeyID,
		AccessKeySecret: config.OSS.AccessKeySecret,
	}, config.OSS.Bucket, config.OSS.Endpoint)

	svc, err := sharelink.New(
		sharelink.WithLedger(memoryrepo.New()),
		sharelink.WithSigner(signer),
		sharelink.WithPublicBaseURL(config.PublicURL, "download"),
		sharelink.WithDefaultExpiry(config.ExpiresIn),
	)
	if err != nil {
		slog.Error("Failed to create service", "err", err)
		os.Exit(1)
	}

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	linkHandler := api.NewLinkHandler(svc)
	downloadHandler := api.NewDownloadHandler(svc)

	apiKeyMiddleware, err := middleware.ApiKeyMiddleware(apiKeyConfig)
	if err != nil {
		slog.Error("Failed initialize API Key middleware", "err", err)
		return
	}
	server.R.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apiKeyMiddleware)
			r.Mount("/", linkHandler.Routes())
		})
	})
	server.R.Mount("/download", downloadHandler.Routes())

	// Start server
	server.Run()
}
