package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/maynagashev/taskkeeper/internal/codec"
	"github.com/maynagashev/taskkeeper/internal/config"
	"github.com/maynagashev/taskkeeper/internal/handlers"
	"github.com/maynagashev/taskkeeper/internal/metrics"
	appmiddleware "github.com/maynagashev/taskkeeper/internal/middleware"
	"github.com/maynagashev/taskkeeper/internal/repository"
	"github.com/maynagashev/taskkeeper/internal/services"
	"github.com/maynagashev/taskkeeper/internal/storage"
	"github.com/maynagashev/taskkeeper/internal/sweeper"
)

const (
	dbStatsInterval    = 15 * time.Second
	revealLimiterScope = "ratelimit:reveal"
)

// Подменяются в тестах.
var (
	newPostgresDB = repository.NewPostgresDB
	newFileStore  = func(ctx context.Context, cfg storage.MinioConfig) (storage.FileStorage, error) {
		return storage.NewMinioClient(ctx, cfg)
	}
)

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db          *sqlx.DB
	redis       *redis.Client
	fileStorage storage.FileStorage
	noteService services.NoteService
	limiter     appmiddleware.Limiter

	authHandler   *handlers.AuthHandler
	vaultHandler  *handlers.VaultHandler
	noteHandler   *handlers.NoteHandler
	taskHandler   *handlers.TaskHandler
	exportHandler *handlers.ExportHandler
}

// Close освобождает соединения с БД и Redis.
func (d *dependencies) Close() {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Printf("Ошибка закрытия соединения с Redis: %v", err)
		}
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			log.Printf("Ошибка закрытия соединения с БД: %v", err)
		}
	}
}

func poolConfig(cfg *config.Config) repository.PoolConfig {
	return repository.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	secretCodec, err := codec.New(cfg.Vault.Codec, cfg.Vault.Passphrase, cfg.Vault.Salt, cfg.Vault.LegacyDecode)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации кодека: %w", err)
	}

	deps := &dependencies{}

	// 1. Подключение к БД
	deps.db, err = newPostgresDB(cfg.Database.DSN, poolConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}

	// 2. Объектное хранилище для экспорта (необязательно)
	if cfg.ExportEnabled() {
		deps.fileStorage, err = newFileStore(ctx, storage.MinioConfig{
			Endpoint:        cfg.Minio.Endpoint,
			AccessKeyID:     cfg.Minio.AccessKey,
			SecretAccessKey: cfg.Minio.SecretKey,
			UseSSL:          cfg.Minio.UseSSL,
			BucketName:      cfg.Minio.Bucket,
			Region:          cfg.Minio.Region,
		})
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", err)
		}
	} else {
		log.Println("MinIO не настроен, экспорт отключен.")
	}

	// 3. Ограничение частоты reveal (необязательно)
	if cfg.RateLimitEnabled() {
		deps.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deps.limiter = appmiddleware.NewRedisLimiter(deps.redis, revealLimiterScope,
			cfg.Redis.RevealLimit, cfg.Redis.RevealWindow)
		log.Printf("Ограничение reveal: %d запросов за %s", cfg.Redis.RevealLimit, cfg.Redis.RevealWindow)
	}

	// 4. Репозитории и сервисы
	credentials := services.NewCredentialStore(
		repository.NewPostgresUserRepository(deps.db),
		services.TokenConfig{Secret: []byte(cfg.JWT.Secret), TTL: cfg.JWT.TTL, Issuer: cfg.JWT.Issuer},
		nil,
	)
	vaultService := services.NewVaultService(repository.NewPostgresVaultRepository(deps.db), credentials, secretCodec, nil)
	deps.noteService = services.NewNoteService(repository.NewPostgresNoteRepository(deps.db), nil)
	taskService := services.NewTaskService(repository.NewPostgresTaskRepository(deps.db), nil)

	var exportService services.ExportService
	if deps.fileStorage != nil {
		exportService = services.NewExportService(taskService, deps.noteService, vaultService, deps.fileStorage, nil)
	}

	// 5. Обработчики
	deps.authHandler = handlers.NewAuthHandler(credentials)
	deps.vaultHandler = handlers.NewVaultHandler(vaultService)
	deps.noteHandler = handlers.NewNoteHandler(deps.noteService)
	deps.taskHandler = handlers.NewTaskHandler(taskService)
	deps.exportHandler = handlers.NewExportHandler(exportService)

	return deps, nil
}

// routerConfig - то, что роутеру нужно помимо обработчиков.
type routerConfig struct {
	jwtSecret      []byte
	jwtIssuer      string
	metricsEnabled bool
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(deps *dependencies, rc routerConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if rc.metricsEnabled {
		r.Use(appmiddleware.Metrics)
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	r.Route("/api", func(r chi.Router) {
		// Публичные маршруты
		r.Post("/auth/register", deps.authHandler.Register)
		r.Post("/auth/login", deps.authHandler.Login)

		// Приватные маршруты
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Authenticator(rc.jwtSecret, rc.jwtIssuer))

			r.Get("/auth/me", deps.authHandler.Me)

			r.Route("/vault", func(r chi.Router) {
				r.Get("/", deps.vaultHandler.List)
				r.Post("/", deps.vaultHandler.Create)
				r.Delete("/{id}", deps.vaultHandler.Delete)
				if deps.limiter != nil {
					r.With(appmiddleware.RateLimit(deps.limiter)).Post("/{id}/reveal", deps.vaultHandler.Reveal)
				} else {
					r.Post("/{id}/reveal", deps.vaultHandler.Reveal)
				}
			})

			r.Route("/notes", func(r chi.Router) {
				r.Get("/", deps.noteHandler.List)
				r.Post("/", deps.noteHandler.Create)
				r.Get("/{id}", deps.noteHandler.Get)
				r.Patch("/{id}", deps.noteHandler.Update)
				r.Delete("/{id}", deps.noteHandler.Delete)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", deps.taskHandler.List)
				r.Post("/", deps.taskHandler.Create)
				r.Get("/today", deps.taskHandler.Today)
				r.Get("/upcoming", deps.taskHandler.Upcoming)
				r.Get("/date/{date}", deps.taskHandler.ByDate)
				r.Get("/stats", deps.taskHandler.Stats)
				r.Patch("/{id}", deps.taskHandler.Update)
				r.Delete("/{id}", deps.taskHandler.Delete)
			})

			r.Post("/export", deps.exportHandler.Create)
			r.Get("/export", deps.exportHandler.Download)
			r.Delete("/export", deps.exportHandler.Delete)
		})
	})
	return r
}

// runServer запускает фоновые задачи и HTTP-сервер, ждет отмены ctx и завершает работу.
func runServer(ctx context.Context, cfg *config.Config, deps *dependencies) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Notes.SweepInterval > 0 {
		go sweeper.Run(ctx, deps.noteService, cfg.Notes.SweepInterval)
	}
	if cfg.Metrics.Enabled {
		go metrics.StartCollector(ctx, deps.db, dbStatsInterval)
	}

	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: setupRouter(deps, routerConfig{
			jwtSecret:      []byte(cfg.JWT.Secret),
			jwtIssuer:      cfg.JWT.Issuer,
			metricsEnabled: cfg.Metrics.Enabled,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLSEnabled() {
			log.Printf("Запуск HTTPS-сервера на порту %s...", cfg.Server.Port)
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			log.Printf("Запуск HTTP-сервера на порту %s (TLS не настроен)...", cfg.Server.Port)
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Остановка сервера...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	log.Println("Сервер остановлен.")
	return nil
}
