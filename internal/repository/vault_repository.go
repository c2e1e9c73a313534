package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/maynagashev/taskkeeper/internal/models"
)

// VaultRepository определяет методы для работы с записями хранилища паролей.
// Все выборки и изменения фильтруются по паре (owner_id, id).
type VaultRepository interface {
	CreateEntry(ctx context.Context, entry *models.VaultEntry) error
	ListEntriesByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.VaultEntry, error)
	GetEntry(ctx context.Context, ownerID, entryID uuid.UUID) (*models.VaultEntry, error)
	DeleteEntry(ctx context.Context, ownerID, entryID uuid.UUID) error
}

// postgresVaultRepository реализует VaultRepository для PostgreSQL.
type postgresVaultRepository struct {
	db *sqlx.DB
}

// NewPostgresVaultRepository создает новый экземпляр репозитория хранилища.
func NewPostgresVaultRepository(db *sqlx.DB) VaultRepository {
	return &postgresVaultRepository{db: db}
}

const vaultEntryColumns = `id, owner_id, title, description, secret_cipher, created_at, updated_at`

// CreateEntry сохраняет новую запись хранилища.
func (r *postgresVaultRepository) CreateEntry(ctx context.Context, entry *models.VaultEntry) error {
	query := `INSERT INTO vault_entries (` + vaultEntryColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.OwnerID, entry.Title, entry.Description, entry.SecretCipher,
		entry.CreatedAt, entry.UpdatedAt)
	if err != nil {
		log.Printf("[VaultRepo] Ошибка создания записи для пользователя %s: %v", entry.OwnerID, err)
		return fmt.Errorf("ошибка выполнения запроса на создание записи: %w", err)
	}

	log.Printf("[VaultRepo] Запись %s создана для пользователя %s", entry.ID, entry.OwnerID)
	return nil
}

// ListEntriesByOwner возвращает записи пользователя, новые первыми.
func (r *postgresVaultRepository) ListEntriesByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]models.VaultEntry, error) {
	query := `SELECT ` + vaultEntryColumns + ` FROM vault_entries
	          WHERE owner_id=$1 ORDER BY created_at DESC`

	entries := make([]models.VaultEntry, 0)
	if err := r.db.SelectContext(ctx, &entries, query, ownerID); err != nil {
		log.Printf("[VaultRepo] Ошибка получения списка записей пользователя %s: %v", ownerID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка записей: %w", err)
	}

	return entries, nil
}

// GetEntry находит запись по ID в пределах владельца.
func (r *postgresVaultRepository) GetEntry(
	ctx context.Context,
	ownerID, entryID uuid.UUID,
) (*models.VaultEntry, error) {
	query := `SELECT ` + vaultEntryColumns + ` FROM vault_entries WHERE id=$1 AND owner_id=$2`
	var entry models.VaultEntry

	err := r.db.GetContext(ctx, &entry, query, entryID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVaultEntryNotFound
		}
		log.Printf("[VaultRepo] Ошибка при поиске записи %s: %v", entryID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение записи: %w", err)
	}

	return &entry, nil
}

// DeleteEntry удаляет запись владельца. Если строка не найдена, возвращает ErrVaultEntryNotFound.
func (r *postgresVaultRepository) DeleteEntry(ctx context.Context, ownerID, entryID uuid.UUID) error {
	query := `DELETE FROM vault_entries WHERE id=$1 AND owner_id=$2`

	res, err := r.db.ExecContext(ctx, query, entryID, ownerID)
	if err != nil {
		log.Printf("[VaultRepo] Ошибка удаления записи %s: %v", entryID, err)
		return fmt.Errorf("ошибка выполнения запроса на удаление записи: %w", err)
	}

	return requireAffected(res, ErrVaultEntryNotFound)
}

// requireAffected возвращает notFound, если запрос не затронул ни одной строки.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения числа измененных строк: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// Кастомная ошибка репозитория.
var (
	ErrVaultEntryNotFound = errors.New("запись хранилища не найдена")
)
