// Package config загружает конфигурацию сервера.
//
// Порядок приоритета: флаги командной строки, переменные окружения,
// файл конфигурации (--config), значения по умолчанию.
// Ключ "a.b-c" читается из переменной окружения A_B_C.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/maynagashev/taskkeeper/internal/codec"
)

// Config - полная конфигурация сервера.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Vault    VaultConfig
	Notes    NotesConfig
	Minio    MinioConfig
	Redis    RedisConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port            string
	TLSCertFile     string
	TLSKeyFile      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// VaultConfig задает кодек секретов хранилища.
type VaultConfig struct {
	Codec      string
	Passphrase string
	Salt       string
	// LegacyDecode разрешает читать записи, сохраненные в base64 до перехода на AES-GCM.
	LegacyDecode bool
}

type NotesConfig struct {
	// SweepInterval - период фоновой очистки. 0 отключает фоновую очистку.
	SweepInterval time.Duration
}

// MinioConfig - объектное хранилище для экспорта. Пустой Endpoint отключает экспорт.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// RedisConfig - ограничение частоты раскрытия секретов. Пустой Addr отключает ограничение.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	RevealLimit  int
	RevealWindow time.Duration
}

type MetricsConfig struct {
	Enabled bool
}

// Ключи конфигурации.
const (
	keyServerPort            = "server.port"
	keyServerTLSCert         = "server.tls-cert"
	keyServerTLSKey          = "server.tls-key"
	keyServerReadTimeout     = "server.read-timeout"
	keyServerWriteTimeout    = "server.write-timeout"
	keyServerIdleTimeout     = "server.idle-timeout"
	keyServerShutdownTimeout = "server.shutdown-timeout"

	keyDatabaseDSN             = "database.dsn"
	keyDatabaseMaxOpenConns    = "database.max-open-conns"
	keyDatabaseMaxIdleConns    = "database.max-idle-conns"
	keyDatabaseConnMaxLifetime = "database.conn-max-lifetime"
	keyDatabaseConnMaxIdleTime = "database.conn-max-idle-time"

	keyJWTSecret = "jwt.secret"
	keyJWTTTL    = "jwt.ttl"
	keyJWTIssuer = "jwt.issuer"

	keyVaultCodec        = "vault.codec"
	keyVaultPassphrase   = "vault.passphrase"
	keyVaultSalt         = "vault.salt"
	keyVaultLegacyDecode = "vault.legacy-decode"

	keyNotesSweepInterval = "notes.sweep-interval"

	keyMinioEndpoint  = "minio.endpoint"
	keyMinioAccessKey = "minio.access-key"
	keyMinioSecretKey = "minio.secret-key"
	keyMinioBucket    = "minio.bucket"
	keyMinioRegion    = "minio.region"
	keyMinioUseSSL    = "minio.use-ssl"

	keyRedisAddr         = "redis.addr"
	keyRedisPassword     = "redis.password"
	keyRedisDB           = "redis.db"
	keyRedisRevealLimit  = "redis.reveal-limit"
	keyRedisRevealWindow = "redis.reveal-window"

	keyMetricsEnabled = "metrics.enabled"
)

// flagBindings связывает имена флагов с ключами конфигурации.
var flagBindings = map[string]string{
	"port":                 keyServerPort,
	"tls-cert":             keyServerTLSCert,
	"tls-key":              keyServerTLSKey,
	"database-dsn":         keyDatabaseDSN,
	"jwt-secret":           keyJWTSecret,
	"vault-codec":          keyVaultCodec,
	"vault-legacy-decode":  keyVaultLegacyDecode,
	"notes-sweep-interval": keyNotesSweepInterval,
	"minio-endpoint":       keyMinioEndpoint,
	"redis-addr":           keyRedisAddr,
	"metrics":              keyMetricsEnabled,
}

// RegisterFlags добавляет флаги сервера в набор fs.
// Значения флагов по умолчанию пустые: реальные значения по умолчанию задает Load.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Путь к файлу конфигурации (yaml, json, toml)")
	fs.String("port", "", "Порт HTTP(S)-сервера (env: SERVER_PORT)")
	fs.String("tls-cert", "", "Путь к TLS-сертификату (env: SERVER_TLS_CERT)")
	fs.String("tls-key", "", "Путь к TLS-ключу (env: SERVER_TLS_KEY)")
	fs.String("database-dsn", "", "Строка подключения к PostgreSQL (env: DATABASE_DSN)")
	fs.String("jwt-secret", "", "Секрет подписи JWT (env: JWT_SECRET)")
	fs.String("vault-codec", "", "Кодек секретов: aesgcm или base64 (env: VAULT_CODEC)")
	fs.Bool("vault-legacy-decode", false, "Читать записи в старом base64-формате (env: VAULT_LEGACY_DECODE)")
	fs.Duration("notes-sweep-interval", 0, "Период очистки просроченных заметок (env: NOTES_SWEEP_INTERVAL)")
	fs.String("minio-endpoint", "", "Адрес MinIO для экспорта (env: MINIO_ENDPOINT)")
	fs.String("redis-addr", "", "Адрес Redis для ограничения reveal (env: REDIS_ADDR)")
	fs.Bool("metrics", true, "Отдавать метрики Prometheus на /metrics (env: METRICS_ENABLED)")
}

// setDefaults задает значения по умолчанию. Каждый ключ должен быть здесь,
// иначе AutomaticEnv его не увидит.
func setDefaults(v *viper.Viper) {
	v.SetDefault(keyServerPort, "8080")
	v.SetDefault(keyServerTLSCert, "")
	v.SetDefault(keyServerTLSKey, "")
	v.SetDefault(keyServerReadTimeout, 10*time.Second)
	v.SetDefault(keyServerWriteTimeout, 10*time.Second)
	v.SetDefault(keyServerIdleTimeout, 30*time.Second)
	v.SetDefault(keyServerShutdownTimeout, 10*time.Second)

	v.SetDefault(keyDatabaseDSN, "")
	v.SetDefault(keyDatabaseMaxOpenConns, 25)
	v.SetDefault(keyDatabaseMaxIdleConns, 25)
	v.SetDefault(keyDatabaseConnMaxLifetime, 5*time.Minute)
	v.SetDefault(keyDatabaseConnMaxIdleTime, 5*time.Minute)

	v.SetDefault(keyJWTSecret, "")
	v.SetDefault(keyJWTTTL, 7*24*time.Hour)
	v.SetDefault(keyJWTIssuer, "taskkeeper")

	v.SetDefault(keyVaultCodec, codec.ModeAESGCM)
	v.SetDefault(keyVaultPassphrase, "")
	v.SetDefault(keyVaultSalt, "taskkeeper.vault.v1")
	v.SetDefault(keyVaultLegacyDecode, false)

	v.SetDefault(keyNotesSweepInterval, time.Hour)

	v.SetDefault(keyMinioEndpoint, "")
	v.SetDefault(keyMinioAccessKey, "minioadmin")
	v.SetDefault(keyMinioSecretKey, "minioadmin")
	v.SetDefault(keyMinioBucket, "taskkeeper-exports")
	v.SetDefault(keyMinioRegion, "us-east-1")
	v.SetDefault(keyMinioUseSSL, false)

	v.SetDefault(keyRedisAddr, "")
	v.SetDefault(keyRedisPassword, "")
	v.SetDefault(keyRedisDB, 0)
	v.SetDefault(keyRedisRevealLimit, 5)
	v.SetDefault(keyRedisRevealWindow, time.Minute)

	v.SetDefault(keyMetricsEnabled, true)
}

// Load читает конфигурацию. fs может быть nil, тогда флаги не учитываются.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagBindings {
			if flag := fs.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("ошибка привязки флага --%s: %w", name, err)
				}
			}
		}

		if flag := fs.Lookup("config"); flag != nil && flag.Value.String() != "" {
			v.SetConfigFile(flag.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
			}
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString(keyServerPort),
			TLSCertFile:     v.GetString(keyServerTLSCert),
			TLSKeyFile:      v.GetString(keyServerTLSKey),
			ReadTimeout:     v.GetDuration(keyServerReadTimeout),
			WriteTimeout:    v.GetDuration(keyServerWriteTimeout),
			IdleTimeout:     v.GetDuration(keyServerIdleTimeout),
			ShutdownTimeout: v.GetDuration(keyServerShutdownTimeout),
		},
		Database: DatabaseConfig{
			DSN:             v.GetString(keyDatabaseDSN),
			MaxOpenConns:    v.GetInt(keyDatabaseMaxOpenConns),
			MaxIdleConns:    v.GetInt(keyDatabaseMaxIdleConns),
			ConnMaxLifetime: v.GetDuration(keyDatabaseConnMaxLifetime),
			ConnMaxIdleTime: v.GetDuration(keyDatabaseConnMaxIdleTime),
		},
		JWT: JWTConfig{
			Secret: v.GetString(keyJWTSecret),
			TTL:    v.GetDuration(keyJWTTTL),
			Issuer: v.GetString(keyJWTIssuer),
		},
		Vault: VaultConfig{
			Codec:        v.GetString(keyVaultCodec),
			Passphrase:   v.GetString(keyVaultPassphrase),
			Salt:         v.GetString(keyVaultSalt),
			LegacyDecode: v.GetBool(keyVaultLegacyDecode),
		},
		Notes: NotesConfig{
			SweepInterval: v.GetDuration(keyNotesSweepInterval),
		},
		Minio: MinioConfig{
			Endpoint:  v.GetString(keyMinioEndpoint),
			AccessKey: v.GetString(keyMinioAccessKey),
			SecretKey: v.GetString(keyMinioSecretKey),
			Bucket:    v.GetString(keyMinioBucket),
			Region:    v.GetString(keyMinioRegion),
			UseSSL:    v.GetBool(keyMinioUseSSL),
		},
		Redis: RedisConfig{
			Addr:         v.GetString(keyRedisAddr),
			Password:     v.GetString(keyRedisPassword),
			DB:           v.GetInt(keyRedisDB),
			RevealLimit:  v.GetInt(keyRedisRevealLimit),
			RevealWindow: v.GetDuration(keyRedisRevealWindow),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool(keyMetricsEnabled),
		},
	}

	return cfg, nil
}

// Validate проверяет параметры, без которых сервер не может работать.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("не указан порт сервера (--port или SERVER_PORT)"))
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, errors.New("для TLS нужны и сертификат, и ключ (SERVER_TLS_CERT, SERVER_TLS_KEY)"))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("не указана строка подключения к БД (--database-dsn или DATABASE_DSN)"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("не указан секрет JWT (--jwt-secret или JWT_SECRET)"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("время жизни JWT должно быть положительным (JWT_TTL)"))
	}

	switch c.Vault.Codec {
	case codec.ModeAESGCM, "":
		if c.Vault.Passphrase == "" {
			errs = append(errs, errors.New("не указана парольная фраза хранилища (VAULT_PASSPHRASE)"))
		}
		if len(c.Vault.Salt) < codec.MinSaltSize {
			errs = append(errs, fmt.Errorf("соль хранилища короче %d байт (VAULT_SALT)", codec.MinSaltSize))
		}
	case codec.ModeBase64:
	default:
		errs = append(errs, fmt.Errorf("неизвестный кодек хранилища %q (VAULT_CODEC)", c.Vault.Codec))
	}

	if c.Notes.SweepInterval < 0 {
		errs = append(errs, errors.New("период очистки заметок не может быть отрицательным"))
	}
	if c.Redis.Addr != "" && (c.Redis.RevealLimit <= 0 || c.Redis.RevealWindow <= 0) {
		errs = append(errs, errors.New("лимит и окно reveal должны быть положительными (REDIS_REVEAL_LIMIT, REDIS_REVEAL_WINDOW)"))
	}

	return errors.Join(errs...)
}

// TLSEnabled сообщает, настроен ли TLS.
func (c *Config) TLSEnabled() bool {
	return c.Server.TLSCertFile != "" && c.Server.TLSKeyFile != ""
}

// ExportEnabled сообщает, настроено ли объектное хранилище для экспорта.
func (c *Config) ExportEnabled() bool {
	return c.Minio.Endpoint != ""
}

// RateLimitEnabled сообщает, включено ли ограничение частоты reveal.
func (c *Config) RateLimitEnabled() bool {
	return c.Redis.Addr != ""
}

// Addr возвращает адрес для http.Server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}
