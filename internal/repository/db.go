package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Драйвер PostgreSQL, импортируем для регистрации
	"github.com/pressly/goose/v3"

	"github.com/maynagashev/taskkeeper/internal/repository/migrations"
)

// Значения пула соединений по умолчанию.
const (
	DefaultMaxOpenConns    = 25              // Максимальное количество открытых соединений
	DefaultMaxIdleConns    = 25              // Максимальное количество простаивающих соединений
	DefaultConnMaxLifetime = 5 * time.Minute // Максимальное время жизни соединения
	DefaultConnMaxIdleTime = 5 * time.Minute // Максимальное время простоя соединения
)

// PoolConfig задает параметры пула соединений.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig возвращает параметры пула по умолчанию.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    DefaultMaxOpenConns,
		MaxIdleConns:    DefaultMaxIdleConns,
		ConnMaxLifetime: DefaultConnMaxLifetime,
		ConnMaxIdleTime: DefaultConnMaxIdleTime,
	}
}

// NewPostgresDB создает и возвращает новое подключение к PostgreSQL.
func NewPostgresDB(dsn string, pool PoolConfig) (*sqlx.DB, error) {
	log.Printf("Подключение к PostgreSQL...")

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	// Проверка соединения
	if err = db.Ping(); err != nil {
		// Закрываем соединение в случае ошибки пинга
		closeErr := db.Close()
		if closeErr != nil {
			log.Printf("Ошибка закрытия соединения с БД после неудачного пинга: %v", closeErr)
		}
		return nil, fmt.Errorf("ошибка проверки соединения с БД (ping): %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	log.Println("Подключение к PostgreSQL успешно установлено.")
	return db, nil
}

// Migrate применяет встроенные миграции схемы.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("ошибка выбора диалекта миграций: %w", err)
	}

	if err := goose.UpContext(ctx, db.DB, "."); err != nil {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	log.Println("Миграции БД применены.")
	return nil
}
