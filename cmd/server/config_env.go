package main

import (
	"strings"
	"time"

	"github.com/tendant/simple-sharelink/pkg/sharelink/config"
)

// EnvConfig is the flat environment surface of the server. It is mapped
// onto config.ServerConfig through the option constructors so the same
// validation applies to env-driven and programmatic setup.
type EnvConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	PublicBaseURL  string        `env:"PUBLIC_BASE_URL" env-default:"http://localhost:8080"`
	DownloadPrefix string        `env:"DOWNLOAD_PREFIX" env-default:"download"`
	DefaultExpiry  time.Duration `env:"DEFAULT_EXPIRY" env-default:"1h"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL" env-default:"10m"`

	Provider string `env:"PROVIDER" env-default:"oss"`

	OSSAccessKeyID     string `env:"OSS_ACCESS_KEY_ID"`
	OSSAccessKeySecret string `env:"OSS_ACCESS_KEY_SECRET"`
	OSSBucket          string `env:"OSS_BUCKET"`
	OSSEndpoint        string `env:"OSS_ENDPOINT"`
	OSSSignature       string `env:"OSS_SIGNATURE" env-default:"v1"`

	S3Region          string `env:"AWS_REGION"`
	S3Bucket          string `env:"S3_BUCKET"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" env-default:"false"`

	LedgerType string `env:"LEDGER_TYPE" env-default:"memory"`
	LedgerURL  string `env:"DATABASE_URL"`

	JWTSecret     string        `env:"JWT_SECRET" env-default:"dev-secret-change-me"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" env-default:"24h"`
	AdminUsername string        `env:"ADMIN_USERNAME" env-default:"admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD" env-default:"admin"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

func loadServerConfig(envCfg EnvConfig) (*config.ServerConfig, error) {
	opts := []config.Option{
		config.WithPort(envCfg.Port),
		config.WithEnvironment(envCfg.Environment),
		config.WithPublicBaseURL(envCfg.PublicBaseURL, envCfg.DownloadPrefix),
		config.WithDefaultExpiry(envCfg.DefaultExpiry),
		config.WithSweepInterval(envCfg.SweepInterval),
		config.WithLedger(envCfg.LedgerType, envCfg.LedgerURL),
		config.WithAuth(config.AuthConfig{
			JWTSecret:     envCfg.JWTSecret,
			TokenTTL:      envCfg.TokenTTL,
			AdminUsername: envCfg.AdminUsername,
			AdminPassword: envCfg.AdminPassword,
		}),
	}

	switch envCfg.Provider {
	case "s3":
		opts = append(opts, config.WithS3Provider(config.S3Config{
			Region:          envCfg.S3Region,
			Bucket:          envCfg.S3Bucket,
			AccessKeyID:     envCfg.S3AccessKeyID,
			SecretAccessKey: envCfg.S3SecretAccessKey,
			Endpoint:        envCfg.S3Endpoint,
			UsePathStyle:    envCfg.S3UsePathStyle,
		}))
	default:
		opts = append(opts, config.WithOSSProvider(config.OSSConfig{
			AccessKeyID:     envCfg.OSSAccessKeyID,
			AccessKeySecret: envCfg.OSSAccessKeySecret,
			DefaultBucket:   envCfg.OSSBucket,
			DefaultEndpoint: envCfg.OSSEndpoint,
			Signature:       envCfg.OSSSignature,
		}))
	}

	if origins := splitOrigins(envCfg.CORSAllowedOrigins); len(origins) > 0 {
		opts = append(opts, config.WithCORSAllowedOrigins(origins))
	}

	return config.Load(opts...)
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
