package config_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-blog/pkg/simpleblog/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "memory://", cfg.StorageURL)
	assert.Empty(t, cfg.DatabaseURL)
	assert.True(t, cfg.Migrate)
	assert.False(t, cfg.Seed)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENVIRONMENT", "testing")
	t.Setenv("STORAGE_URL", "file:///tmp/blog-storage")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SEED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "testing", cfg.Environment)
	assert.Equal(t, "file:///tmp/blog-storage", cfg.StorageURL)
	assert.Equal(t, "env-secret", cfg.JWTSecret)
	assert.True(t, cfg.Seed)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*config.ServerConfig)
		expectError bool
	}{
		{
			name:        "defaults are valid",
			mutate:      func(c *config.ServerConfig) {},
			expectError: false,
		},
		{
			name:        "empty port",
			mutate:      func(c *config.ServerConfig) { c.Port = "" },
			expectError: true,
		},
		{
			name:        "empty storage url",
			mutate:      func(c *config.ServerConfig) { c.StorageURL = "" },
			expectError: true,
		},
		{
			name:        "default secret rejected in production",
			mutate:      func(c *config.ServerConfig) { c.Environment = "production" },
			expectError: true,
		},
		{
			name: "explicit secret accepted in production",
			mutate: func(c *config.ServerConfig) {
				c.Environment = "production"
				c.JWTSecret = "real-secret"
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			if tt.expectError {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestBuildBlobStore(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		cfg := &config.ServerConfig{StorageURL: "memory://"}
		store, err := cfg.BuildBlobStore()
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("Filesystem", func(t *testing.T) {
		cfg := &config.ServerConfig{StorageURL: "file://" + t.TempDir()}
		store, err := cfg.BuildBlobStore()
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("UnknownScheme", func(t *testing.T) {
		cfg := &config.ServerConfig{StorageURL: "ftp://example.com"}
		_, err := cfg.BuildBlobStore()
		assert.Error(t, err)
	})
}

func TestBuildServiceWithMemoryBackends(t *testing.T) {
	cfg := &config.ServerConfig{Port: "8080", StorageURL: "memory://", JWTSecret: "secret"}

	svc, repo, err := cfg.BuildService(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, svc)
	assert.NotNil(t, repo)
	assert.NotNil(t, cfg.BuildAuth(repo))
}
