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

// TaskRepository определяет методы для работы с задачами пользователя.
type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error
	ListTasksByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error)
	// ListTasksForDay возвращает задачи со сроком в [start, end) и, если includeOverall, все общие задачи.
	ListTasksForDay(ctx context.Context, ownerID uuid.UUID, start, end time.Time, includeOverall bool) ([]models.Task, error)
	// ListUpcomingTasks возвращает не общие задачи со сроком в [from, to), по возрастанию срока.
	ListUpcomingTasks(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.Task, error)
}

// postgresTaskRepository реализует TaskRepository для PostgreSQL.
type postgresTaskRepository struct {
	db *sqlx.DB
}

// NewPostgresTaskRepository создает новый экземпляр репозитория задач.
func NewPostgresTaskRepository(db *sqlx.DB) TaskRepository {
	return &postgresTaskRepository{db: db}
}

const taskColumns = `id, owner_id, title, description, due_date, due_time, priority, category,
	completion_status, is_overall_task, email_reminder, push_reminder, created_at, updated_at`

// CreateTask сохраняет новую задачу.
func (r *postgresTaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	query := `INSERT INTO tasks (` + taskColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.OwnerID, task.Title, task.Description, task.DueDate, task.DueTime,
		task.Priority, task.Category, task.CompletionStatus, task.IsOverallTask,
		task.EmailReminder, task.PushReminder, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		log.Printf("[TaskRepo] Ошибка создания задачи для пользователя %s: %v", task.OwnerID, err)
		return fmt.Errorf("ошибка выполнения запроса на создание задачи: %w", err)
	}

	return nil
}

// GetTask находит задачу по ID в пределах владельца.
func (r *postgresTaskRepository) GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id=$1 AND owner_id=$2`
	var task models.Task

	err := r.db.GetContext(ctx, &task, query, taskID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		log.Printf("[TaskRepo] Ошибка при поиске задачи %s: %v", taskID, err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение задачи: %w", err)
	}

	return &task, nil
}

// UpdateTask перезаписывает изменяемые поля задачи. Фильтр по (id, owner_id).
func (r *postgresTaskRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	query := `UPDATE tasks SET title=$3, description=$4, due_date=$5, due_time=$6, priority=$7,
	              category=$8, completion_status=$9, is_overall_task=$10, email_reminder=$11,
	              push_reminder=$12, updated_at=$13
	          WHERE id=$1 AND owner_id=$2`

	res, err := r.db.ExecContext(ctx, query,
		task.ID, task.OwnerID, task.Title, task.Description, task.DueDate, task.DueTime,
		task.Priority, task.Category, task.CompletionStatus, task.IsOverallTask,
		task.EmailReminder, task.PushReminder, task.UpdatedAt)
	if err != nil {
		log.Printf("[TaskRepo] Ошибка обновления задачи %s: %v", task.ID, err)
		return fmt.Errorf("ошибка выполнения запроса на обновление задачи: %w", err)
	}

	return requireAffected(res, ErrTaskNotFound)
}

// DeleteTask удаляет задачу владельца.
func (r *postgresTaskRepository) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id=$1 AND owner_id=$2`

	res, err := r.db.ExecContext(ctx, query, taskID, ownerID)
	if err != nil {
		log.Printf("[TaskRepo] Ошибка удаления задачи %s: %v", taskID, err)
		return fmt.Errorf("ошибка выполнения запроса на удаление задачи: %w", err)
	}

	return requireAffected(res, ErrTaskNotFound)
}

// ListTasksByOwner возвращает все задачи пользователя, новые первыми.
func (r *postgresTaskRepository) ListTasksByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner_id=$1 ORDER BY created_at DESC`
	return r.selectTasks(ctx, query, ownerID)
}

func (r *postgresTaskRepository) ListTasksForDay(
	ctx context.Context,
	ownerID uuid.UUID,
	start, end time.Time,
	includeOverall bool,
) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
	          WHERE owner_id=$1 AND ((due_date >= $2 AND due_date < $3) OR ($4 AND is_overall_task))
	          ORDER BY due_date ASC NULLS LAST, created_at DESC`
	return r.selectTasks(ctx, query, ownerID, start, end, includeOverall)
}

func (r *postgresTaskRepository) ListUpcomingTasks(
	ctx context.Context,
	ownerID uuid.UUID,
	from, to time.Time,
) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
	          WHERE owner_id=$1 AND NOT is_overall_task AND due_date >= $2 AND due_date < $3
	          ORDER BY due_date ASC`
	return r.selectTasks(ctx, query, ownerID, from, to)
}

func (r *postgresTaskRepository) selectTasks(ctx context.Context, query string, args ...any) ([]models.Task, error) {
	tasks := make([]models.Task, 0)
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		log.Printf("[TaskRepo] Ошибка получения списка задач: %v", err)
		return nil, fmt.Errorf("ошибка выполнения запроса на получение списка задач: %w", err)
	}
	return tasks, nil
}

// Кастомная ошибка репозитория.
var (
	ErrTaskNotFound = errors.New("задача не найдена")
)
