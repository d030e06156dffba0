// Package config assembles a sharelink service from declarative server
// configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-sharelink/pkg/sharelink"
	"github.com/tendant/simple-sharelink/pkg/sharelink/oss"
	"github.com/tendant/simple-sharelink/pkg/sharelink/repo/memory"
	repopg "github.com/tendant/simple-sharelink/pkg/sharelink/repo/postgres"
	s3storage "github.com/tendant/simple-sharelink/pkg/sharelink/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:           "8080",
		Environment:    "development",
		PublicBaseURL:  "http://localhost:8080",
		DownloadPrefix: "download",
		DefaultExpiry:  time.Hour,
		Provider:       "oss",
		LedgerType:     "memory",
	}
}

// OSSConfig holds credentials and defaults for the native OSS signer.
type OSSConfig struct {
	AccessKeyID     string
	AccessKeySecret string
	DefaultBucket   string
	DefaultEndpoint string

	// Signature selects the protocol for listing API requests: "v1"
	// (default) or "v4".
	Signature string
}

// S3Config holds settings for the SDK presigner used when Provider is "s3".
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	UsePathStyle    bool
}

// AuthConfig holds the operator-authentication boundary settings.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AdminUsername string
	AdminPassword string
}

// ServerConfig represents server configuration for the sharelink service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	PublicBaseURL  string
	DownloadPrefix string
	DefaultExpiry  time.Duration

	// SweepInterval enables the periodic cleanup ticker when positive.
	SweepInterval time.Duration

	// Provider selects the URL signer: "oss" (native V1 presigning) or
	// "s3" (SDK presigner).
	Provider string

	OSS OSSConfig
	S3  S3Config

	// Ledger configuration
	LedgerType string // "memory", "postgres"
	LedgerURL  string

	Auth AuthConfig

	CORSAllowedOrigins []string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.Provider != "oss" && c.Provider != "s3" {
		return errors.New("provider must be 'oss' or 's3'")
	}
	if c.Provider == "oss" && (c.OSS.AccessKeyID == "" || c.OSS.AccessKeySecret == "") {
		return errors.New("oss access key id and secret are required when using the oss provider")
	}

	if c.LedgerType != "memory" && c.LedgerType != "postgres" {
		return errors.New("ledger_type must be 'memory' or 'postgres'")
	}
	if c.LedgerType == "postgres" && c.LedgerURL == "" {
		return errors.New("ledger_url is required when using postgres")
	}

	return nil
}

// BuildLedger creates the configured ledger implementation.
func (c *ServerConfig) BuildLedger(ctx context.Context) (sharelink.Ledger, error) {
	switch c.LedgerType {
	case "postgres":
		pool, err := pgxpool.New(ctx, c.LedgerURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return memory.New(), nil
	}
}

// BuildSigner creates the configured URL signer.
func (c *ServerConfig) BuildSigner() (sharelink.URLSigner, error) {
	switch c.Provider {
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:          c.S3.Region,
			Bucket:          c.S3.Bucket,
			AccessKeyID:     c.S3.AccessKeyID,
			SecretAccessKey: c.S3.SecretAccessKey,
			Endpoint:        c.S3.Endpoint,
			UsePathStyle:    c.S3.UsePathStyle,
		})
	default:
		return oss.NewV1Signer(oss.Credentials{
			AccessKeyID:     c.OSS.AccessKeyID,
			AccessKeySecret: c.OSS.AccessKeySecret,
		}, c.OSS.DefaultBucket, c.OSS.DefaultEndpoint), nil
	}
}

// BuildListingClient creates the OSS listing client, or nil when no
// endpoint is configured (the listing endpoints then report unavailable).
func (c *ServerConfig) BuildListingClient() (*oss.Client, error) {
	if c.Provider != "oss" || c.OSS.DefaultEndpoint == "" {
		return nil, nil
	}
	return oss.NewClient(oss.ClientConfig{
		Credentials: oss.Credentials{
			AccessKeyID:     c.OSS.AccessKeyID,
			AccessKeySecret: c.OSS.AccessKeySecret,
		},
		Endpoint:  c.OSS.DefaultEndpoint,
		Signature: oss.SignatureVersion(c.OSS.Signature),
	})
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (sharelink.Service, error) {
	ledger, err := c.BuildLedger(ctx)
	if err != nil {
		return nil, err
	}
	signer, err := c.BuildSigner()
	if err != nil {
		return nil, err
	}

	return sharelink.New(
		sharelink.WithLedger(ledger),
		sharelink.WithSigner(signer),
		sharelink.WithPublicBaseURL(c.PublicBaseURL, c.DownloadPrefix),
		sharelink.WithDefaultExpiry(c.DefaultExpiry),
	)
}
