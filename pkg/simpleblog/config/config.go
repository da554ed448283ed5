package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/auth"
	"github.com/tendant/simple-blog/pkg/simpleblog/repo/memory"
	repopg "github.com/tendant/simple-blog/pkg/simpleblog/repo/postgres"
	fsstorage "github.com/tendant/simple-blog/pkg/simpleblog/storage/fs"
	memorystorage "github.com/tendant/simple-blog/pkg/simpleblog/storage/memory"
	s3storage "github.com/tendant/simple-blog/pkg/simpleblog/storage/s3"
)

// ServerConfig represents server configuration for the simple-blog service
type ServerConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"` // development, production, testing

	// Database configuration. An empty DATABASE_URL selects the
	// in-memory repository.
	DatabaseURL string `env:"DATABASE_URL"`
	Migrate     bool   `env:"MIGRATE" env-default:"true"`

	// Storage location for post images, as a URL:
	//   memory://
	//   file:///var/lib/simple-blog/storage?url_prefix=http://localhost:8080/files
	//   s3://bucket?region=us-east-1&endpoint=...&use_path_style=true
	StorageURL string `env:"STORAGE_URL" env-default:"memory://"`

	// Auth configuration
	JWTSecret string `env:"JWT_SECRET" env-default:"dev-secret-change-me"`

	// Seed demo data on startup
	Seed bool `env:"SEED" env-default:"false"`

	// S3 credentials, used when STORAGE_URL has the s3 scheme
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// Load reads the server configuration from the environment
func Load() (*ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.StorageURL == "" {
		return errors.New("storage_url is required")
	}
	if c.Environment == "production" && c.JWTSecret == "dev-secret-change-me" {
		return errors.New("jwt_secret must be set in production")
	}
	return nil
}

// BuildRepository creates a Repository based on the configuration. It
// runs pending migrations on Postgres unless MIGRATE is false.
func (c *ServerConfig) BuildRepository(ctx context.Context) (simpleblog.Repository, error) {
	if c.DatabaseURL == "" {
		return memory.New(), nil
	}

	pool, err := pgxpool.New(ctx, c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if c.Migrate {
		if err := repopg.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return repopg.NewWithPool(pool), nil
}

// BuildBlobStore creates a BlobStore from the storage URL
func (c *ServerConfig) BuildBlobStore() (simpleblog.BlobStore, error) {
	u, err := url.Parse(c.StorageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse STORAGE_URL: %w", err)
	}

	switch u.Scheme {
	case "memory":
		return memorystorage.New(), nil

	case "file":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   u.Path,
			URLPrefix: u.Query().Get("url_prefix"),
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:          u.Query().Get("region"),
			Bucket:          u.Host,
			AccessKeyID:     c.AWSAccessKeyID,
			SecretAccessKey: c.AWSSecretAccessKey,
			Endpoint:        u.Query().Get("endpoint"),
			UsePathStyle:    strings.EqualFold(u.Query().Get("use_path_style"), "true"),
		})

	default:
		return nil, fmt.Errorf("unsupported storage scheme: %s", u.Scheme)
	}
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (simpleblog.Service, simpleblog.Repository, error) {
	repo, err := c.BuildRepository(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build repository: %w", err)
	}

	store, err := c.BuildBlobStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build blob store: %w", err)
	}

	svc, err := simpleblog.New(
		simpleblog.WithRepository(repo),
		simpleblog.WithBlobStore(store),
	)
	if err != nil {
		return nil, nil, err
	}
	return svc, repo, nil
}

// BuildAuth creates the token-issuing auth service backed by the given
// repository
func (c *ServerConfig) BuildAuth(repo simpleblog.Repository) *auth.Service {
	return auth.New(repo, c.JWTSecret)
}
