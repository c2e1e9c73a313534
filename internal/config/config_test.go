package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maynagashev/taskkeeper/internal/config"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func validConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: "8080"},
		Database: config.DatabaseConfig{DSN: "postgres://localhost/taskkeeper"},
		JWT:      config.JWTConfig{Secret: "jwt-secret", TTL: time.Hour},
		Vault:    config.VaultConfig{Codec: "aesgcm", Passphrase: "passphrase", Salt: "taskkeeper.vault.v1"},
		Redis:    config.RedisConfig{RevealLimit: 5, RevealWindow: time.Minute},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "taskkeeper", cfg.JWT.Issuer)
	assert.Equal(t, "aesgcm", cfg.Vault.Codec)
	assert.Equal(t, time.Hour, cfg.Notes.SweepInterval)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Redis.RevealLimit)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.TLSEnabled())
	assert.False(t, cfg.ExportEnabled())
	assert.False(t, cfg.RateLimitEnabled())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DSN", "postgres://env/taskkeeper")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "7")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("VAULT_PASSPHRASE", "env-passphrase")
	t.Setenv("VAULT_LEGACY_DECODE", "true")
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_REVEAL_WINDOW", "30s")

	cfg, err := config.Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "postgres://env/taskkeeper", cfg.Database.DSN)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "env-passphrase", cfg.Vault.Passphrase)
	assert.True(t, cfg.Vault.LegacyDecode)
	assert.True(t, cfg.ExportEnabled())
	assert.True(t, cfg.RateLimitEnabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.RevealWindow)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DSN", "postgres://env/taskkeeper")

	cfg, err := config.Load(newFlags(t,
		"--port=7070",
		"--database-dsn=postgres://flag/taskkeeper",
		"--notes-sweep-interval=15m",
		"--metrics=false",
	))
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "postgres://flag/taskkeeper", cfg.Database.DSN)
	assert.Equal(t, 15*time.Minute, cfg.Notes.SweepInterval)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskkeeper.yaml")
	content := []byte(`
server:
  port: "6060"
database:
  dsn: postgres://file/taskkeeper
jwt:
  secret: file-secret
vault:
  codec: base64
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Run("Значения из файла", func(t *testing.T) {
		cfg, err := config.Load(newFlags(t, "--config="+path))
		require.NoError(t, err)
		assert.Equal(t, "6060", cfg.Server.Port)
		assert.Equal(t, "postgres://file/taskkeeper", cfg.Database.DSN)
		assert.Equal(t, "base64", cfg.Vault.Codec)
		require.NoError(t, cfg.Validate())
	})

	t.Run("Окружение важнее файла", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "env-secret")
		cfg, err := config.Load(newFlags(t, "--config="+path))
		require.NoError(t, err)
		assert.Equal(t, "env-secret", cfg.JWT.Secret)
	})

	t.Run("Файл не существует", func(t *testing.T) {
		_, err := config.Load(newFlags(t, "--config="+filepath.Join(t.TempDir(), "missing.yaml")))
		require.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *config.Config)
		expectErr string
	}{
		{name: "Корректная конфигурация", mutate: func(*config.Config) {}},
		{
			name:      "Нет DSN",
			mutate:    func(c *config.Config) { c.Database.DSN = "" },
			expectErr: "DATABASE_DSN",
		},
		{
			name:      "Нет секрета JWT",
			mutate:    func(c *config.Config) { c.JWT.Secret = "" },
			expectErr: "JWT_SECRET",
		},
		{
			name:      "Нет парольной фразы для aesgcm",
			mutate:    func(c *config.Config) { c.Vault.Passphrase = "" },
			expectErr: "VAULT_PASSPHRASE",
		},
		{
			name: "base64 не требует парольной фразы",
			mutate: func(c *config.Config) {
				c.Vault.Codec = "base64"
				c.Vault.Passphrase = ""
			},
		},
		{
			name:      "Короткая соль",
			mutate:    func(c *config.Config) { c.Vault.Salt = "abc" },
			expectErr: "VAULT_SALT",
		},
		{
			name:      "Неизвестный кодек",
			mutate:    func(c *config.Config) { c.Vault.Codec = "rot13" },
			expectErr: "VAULT_CODEC",
		},
		{
			name:      "Сертификат без ключа",
			mutate:    func(c *config.Config) { c.Server.TLSCertFile = "cert.pem" },
			expectErr: "SERVER_TLS_KEY",
		},
		{
			name: "Redis с нулевым лимитом",
			mutate: func(c *config.Config) {
				c.Redis.Addr = "localhost:6379"
				c.Redis.RevealLimit = 0
			},
			expectErr: "REDIS_REVEAL_LIMIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectErr)
		})
	}
}
