package config

import (
	"fmt"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithPublicBaseURL sets the public base URL and download path prefix used
// in redemption links
func WithPublicBaseURL(baseURL, downloadPrefix string) Option {
	return func(c *ServerConfig) error {
		if baseURL == "" {
			return fmt.Errorf("public base URL cannot be empty")
		}
		c.PublicBaseURL = baseURL
		if downloadPrefix != "" {
			c.DownloadPrefix = downloadPrefix
		}
		return nil
	}
}

// WithDefaultExpiry sets the TTL applied to issuance requests without one
func WithDefaultExpiry(d time.Duration) Option {
	return func(c *ServerConfig) error {
		if d <= 0 {
			return fmt.Errorf("default expiry must be positive")
		}
		c.DefaultExpiry = d
		return nil
	}
}

// WithSweepInterval enables the periodic cleanup ticker
func WithSweepInterval(d time.Duration) Option {
	return func(c *ServerConfig) error {
		c.SweepInterval = d
		return nil
	}
}

// WithOSSProvider selects the native OSS signer with the given credentials
// and defaults
func WithOSSProvider(ossCfg OSSConfig) Option {
	return func(c *ServerConfig) error {
		if ossCfg.AccessKeyID == "" || ossCfg.AccessKeySecret == "" {
			return fmt.Errorf("oss access key id and secret are required")
		}
		c.Provider = "oss"
		c.OSS = ossCfg
		return nil
	}
}

// WithS3Provider selects the SDK presigner for S3-compatible stores
func WithS3Provider(s3Cfg S3Config) Option {
	return func(c *ServerConfig) error {
		c.Provider = "s3"
		c.S3 = s3Cfg
		return nil
	}
}

// WithLedger configures the durable ledger backend
func WithLedger(ledgerType, url string) Option {
	return func(c *ServerConfig) error {
		if ledgerType != "memory" && ledgerType != "postgres" {
			return fmt.Errorf("ledger type must be 'memory' or 'postgres', got: %s", ledgerType)
		}
		if ledgerType == "postgres" && url == "" {
			return fmt.Errorf("ledger URL is required for postgres")
		}
		c.LedgerType = ledgerType
		c.LedgerURL = url
		return nil
	}
}

// WithAuth configures the operator-authentication boundary
func WithAuth(authCfg AuthConfig) Option {
	return func(c *ServerConfig) error {
		if authCfg.JWTSecret == "" {
			return fmt.Errorf("jwt secret cannot be empty")
		}
		if authCfg.TokenTTL <= 0 {
			authCfg.TokenTTL = time.Hour
		}
		c.Auth = authCfg
		return nil
	}
}

// WithCORSAllowedOrigins sets the allowed CORS origins; "*" allows all
func WithCORSAllowedOrigins(origins []string) Option {
	return func(c *ServerConfig) error {
		c.CORSAllowedOrigins = origins
		return nil
	}
}
