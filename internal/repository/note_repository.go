package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/maynagashev/taskkeeper/internal/models"
)

// NoteUpdate описывает частичное изменение заметки. Поля со значением nil не меняются.
// Если Pinned задан, ExpiresAt записывается вместе с ним.
type NoteUpdate struct {
	Title     *string
	Content   *string
	Pinned    *bool
	ExpiresAt *time.Time
	UpdatedAt time.Time
}

// NoteRepository определяет методы для работы с заметками.
// Методы, принимающие now, не видят просроченные незакрепленные заметки.
type NoteRepository interface {
	CreateNote(ctx context.Context, note *models.Note) error
	ListNotesByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Note, error)
	GetNote(ctx context.Context, ownerID, noteID uuid.UUID, now time.Time) (*models.Note, error)
	UpdateNote(ctx context.Context, ownerID, noteID uuid.UUID, upd NoteUpdate) (*models.Note, error)
	DeleteNote(ctx context.Context, ownerID, noteID uuid.UUID) error
	DeleteExpiredNotes(ctx context.Context, now time.Time) (int64, error)
}

// postgresNoteRepository реализует NoteRepository для PostgreSQL.
type postgresNoteRepository struct {
	db *sqlx.DB
}

// NewPostgresNoteRepository создает новый экземпляр репозитория заметок.
func NewPostgresNoteRepository(db *sqlx.DB) NoteRepository {
	return &postgresNoteRepository{db: db}
}

const noteColumns = `id, owner_id, title, content, pinned, expires_at, created_at, updated_at`

// CreateNote сохраняет новую заметку.
func (r *postgresNoteRepository) CreateNote(ctx context.Context, note *models.Note) error {
	query := `INSERT INTO notes (` + noteColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.ExecContext(ctx, query,
		note.ID, note.OwnerID, note.Title, note.Content, note.Pinned, note.ExpiresAt,
		note.CreatedAt, note.UpdatedAt)
	if err != nil {
		log.Printf("[NoteRepo] Ошибка создания заметки для пользователя %s: %v", note.OwnerID, err)
		return fmt.Errorf("ошибка выполнения запроса на создание заметки: %w", err)
	}

	return nil
}

// ListNotesByOwner возвращает заметки пользователя: закрепленные первыми, затем новые.
func (r *postgresNoteRepository) ListNotesByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
	          WHERE owner_id=$1 ORDER BY pinned DESC, created_at DESC`

	notes := make([]models.Note, 0)
	if err := r.db.SelectContext(ctx, &notes, query, ownerID); err != nil {
		log.Printf("[NoteRepo] Ошибка получения списка заметок пользователя %s: %v", ownerID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка заметок: %w", err)
	}

	return notes, nil
}

// GetNote находит живую заметку владельца.
func (r *postgresNoteRepository) GetNote(
	ctx context.Context,
	ownerID, noteID uuid.UUID,
	now time.Time,
) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
	          WHERE id=$1 AND owner_id=$2 AND (pinned OR expires_at > $3)`
	var note models.Note

	err := r.db.GetContext(ctx, &note, query, noteID, ownerID, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		log.Printf("[NoteRepo] Ошибка при поиске заметки %s: %v", noteID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение заметки: %w", err)
	}

	return &note, nil
}

// UpdateNote применяет изменение к живой заметке владельца одним запросом.
// Время upd.UpdatedAt одновременно служит моментом проверки срока жизни.
func (r *postgresNoteRepository) UpdateNote(
	ctx context.Context,
	ownerID, noteID uuid.UUID,
	upd NoteUpdate,
) (*models.Note, error) {
	query := `UPDATE notes SET
	              title = COALESCE($3::text, title),
	              content = COALESCE($4::text, content),
	              pinned = COALESCE($5::boolean, pinned),
	              expires_at = CASE WHEN $5::boolean IS NULL THEN expires_at ELSE $6::timestamptz END,
	              updated_at = $7
	          WHERE id=$1 AND owner_id=$2 AND (pinned OR expires_at > $7)
	          RETURNING ` + noteColumns
	var note models.Note

	err := r.db.GetContext(ctx, &note, query,
		noteID, ownerID, upd.Title, upd.Content, upd.Pinned, upd.ExpiresAt, upd.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		log.Printf("[NoteRepo] Ошибка обновления заметки %s: %v", noteID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на обновление заметки: %w", err)
	}

	return &note, nil
}

// DeleteNote удаляет заметку владельца.
func (r *postgresNoteRepository) DeleteNote(ctx context.Context, ownerID, noteID uuid.UUID) error {
	query := `DELETE FROM notes WHERE id=$1 AND owner_id=$2`

	res, err := r.db.ExecContext(ctx, query, noteID, ownerID)
	if err != nil {
		log.Printf("[NoteRepo] Ошибка удаления заметки %s: %v", noteID, err)
		return fmt.Errorf("ошибка выполнения запроса на удаление заметки: %w", err)
	}

	return requireAffected(res, ErrNoteNotFound)
}

// DeleteExpiredNotes удаляет все просроченные незакрепленные заметки всех пользователей
// и возвращает число удаленных строк.
func (r *postgresNoteRepository) DeleteExpiredNotes(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM notes WHERE pinned = false AND expires_at <= $1`

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		log.Printf("[NoteRepo] Ошибка очистки просроченных заметок: %v", err)
		return 0, fmt.Errorf("ошибка выполнения запроса на очистку заметок: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ошибка получения числа удаленных заметок: %w", err)
	}
	if n > 0 {
		log.Printf("[NoteRepo] Удалено просроченных заметок: %d", n)
	}
	return n, nil
}

// Кастомная ошибка репозитория.
var (
	ErrNoteNotFound = errors.New("заметка не найдена")
)
