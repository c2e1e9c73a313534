package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/maynagashev/taskkeeper/internal/models"
)

// Коды ошибок PostgreSQL.
const (
	pgUniqueViolationCode = "23505"
)

// UserRepository определяет методы для работы с данными пользователей в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// postgresUserRepository реализует UserRepository для PostgreSQL.
type postgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository создает новый экземпляр репозитория пользователей для PostgreSQL.
func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

// CreateUser сохраняет нового пользователя. ID и CreatedAt заполняет вызывающий.
func (r *postgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (id, email, password_hash, first_name, last_name, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.CreatedAt)
	if err != nil {
		// Проверяем на ошибку нарушения уникальности (duplicate key)
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
			log.Printf("[UserRepo] Ошибка создания пользователя: email '%s' уже занят", user.Email)
			return ErrEmailTaken
		}
		log.Printf("[UserRepo] Непредвиденная ошибка при создании пользователя '%s': %v", user.Email, err)
		return fmt.Errorf("ошибка выполнения запроса на создание пользователя: %w", err)
	}

	log.Printf("[UserRepo] Пользователь '%s' успешно создан с ID %s", user.Email, user.ID)
	return nil
}

// GetUserByEmail находит пользователя по email.
func (r *postgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, password_hash, first_name, last_name, created_at FROM users WHERE email=$1`
	var user models.User

	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[UserRepo] Пользователь с email '%s' не найден", email)
			return nil, ErrUserNotFound
		}
		log.Printf("[UserRepo] Ошибка при поиске пользователя '%s': %v", email, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение пользователя: %w", err)
	}

	return &user, nil
}

// GetUserByID находит пользователя по ID.
func (r *postgresUserRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT id, email, password_hash, first_name, last_name, created_at FROM users WHERE id=$1`
	var user models.User

	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		log.Printf("[UserRepo] Ошибка при поиске пользователя ID %s: %v", id, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение пользователя: %w", err)
	}

	return &user, nil
}

// Кастомные ошибки репозитория.
var (
	ErrUserNotFound = errors.New("пользователь не найден")
	ErrEmailTaken   = errors.New("email уже занят")
)
