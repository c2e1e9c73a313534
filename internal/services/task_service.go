package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/maynagashev/taskkeeper/internal/models"
	"github.com/maynagashev/taskkeeper/internal/repository"
)

// Параметры выборок задач.
const (
	DefaultUpcomingDays = 7
	MaxUpcomingDays     = 366
	DateLayout          = "2006-01-02"
)

// TaskService управляет задачами пользователя. Дни считаются в UTC.
type TaskService interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error)
	Today(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error)
	Upcoming(ctx context.Context, ownerID uuid.UUID, days int) ([]models.Task, error)
	ByDate(ctx context.Context, ownerID uuid.UUID, date string) ([]models.Task, error)
	Stats(ctx context.Context, ownerID uuid.UUID) (*models.TaskStats, error)
	Create(ctx context.Context, ownerID uuid.UUID, in TaskInput) (*models.Task, error)
	Update(ctx context.Context, ownerID, taskID uuid.UUID, in TaskInput) (*models.Task, error)
	Delete(ctx context.Context, ownerID, taskID uuid.UUID) error
}

var _ TaskService = (*taskService)(nil)

type taskService struct {
	taskRepo repository.TaskRepository
	now      func() time.Time
}

// NewTaskService создает сервис задач.
func NewTaskService(taskRepo repository.TaskRepository, clock func() time.Time) TaskService {
	if clock == nil {
		clock = time.Now
	}
	return &taskService{taskRepo: taskRepo, now: clock}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *taskService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error) {
	tasks, err := s.taskRepo.ListTasksByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения задач: %w", err)
	}
	return ownedTasks(tasks, ownerID), nil
}

// Today возвращает общие задачи и задачи со сроком на сегодня.
func (s *taskService) Today(ctx context.Context, ownerID uuid.UUID) ([]models.Task, error) {
	start := startOfDay(s.now())
	tasks, err := s.taskRepo.ListTasksForDay(ctx, ownerID, start, start.AddDate(0, 0, 1), true)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения задач на сегодня: %w", err)
	}
	return ownedTasks(tasks, ownerID), nil
}

// Upcoming возвращает не общие задачи со сроком от сегодня до сегодня+days включительно.
// Неположительное days заменяется на DefaultUpcomingDays.
func (s *taskService) Upcoming(ctx context.Context, ownerID uuid.UUID, days int) ([]models.Task, error) {
	if days <= 0 {
		days = DefaultUpcomingDays
	}
	if days > MaxUpcomingDays {
		return nil, &ValidationError{Fields: map[string]string{
			"days": fmt.Sprintf("не больше %d", MaxUpcomingDays),
		}}
	}

	start := startOfDay(s.now())
	tasks, err := s.taskRepo.ListUpcomingTasks(ctx, ownerID, start, start.AddDate(0, 0, days+1))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ближайших задач: %w", err)
	}
	return ownedTasks(tasks, ownerID), nil
}

// ByDate возвращает задачи со сроком в указанный день (ГГГГ-ММ-ДД).
func (s *taskService) ByDate(ctx context.Context, ownerID uuid.UUID, date string) ([]models.Task, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"date": "ожидается дата в формате ГГГГ-ММ-ДД"}}
	}

	tasks, err := s.taskRepo.ListTasksForDay(ctx, ownerID, day, day.AddDate(0, 0, 1), false)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения задач на дату: %w", err)
	}
	return ownedTasks(tasks, ownerID), nil
}

// Stats считает сводку по всем задачам пользователя.
func (s *taskService) Stats(ctx context.Context, ownerID uuid.UUID) (*models.TaskStats, error) {
	tasks, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	stats := &models.TaskStats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.CompletionStatus {
		case models.StatusComplete:
			stats.Completed++
		case models.StatusPending:
			stats.Pending++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	return stats, nil
}

func (s *taskService) Create(ctx context.Context, ownerID uuid.UUID, in TaskInput) (*models.Task, error) {
	if err := in.Validate(true); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	task := &models.Task{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Priority:         models.PriorityMedium,
		Category:         models.CategoryAssignment,
		CompletionStatus: models.StatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	applyTaskInput(task, in)

	if err := s.taskRepo.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("ошибка создания задачи: %w", err)
	}

	log.Printf("[TaskService] Задача %s создана пользователем %s", task.ID, ownerID)
	return task, nil
}

// Update читает задачу владельца, применяет переданные поля и сохраняет ее.
func (s *taskService) Update(ctx context.Context, ownerID, taskID uuid.UUID, in TaskInput) (*models.Task, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetTask(ctx, ownerID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения задачи: %w", err)
	}
	if task.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	applyTaskInput(task, in)
	task.UpdatedAt = s.now().UTC()

	if err = s.taskRepo.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка обновления задачи: %w", err)
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, ownerID, taskID uuid.UUID) error {
	err := s.taskRepo.DeleteTask(ctx, ownerID, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка удаления задачи: %w", err)
	}
	return nil
}

// applyTaskInput переносит в задачу только переданные поля.
// Пустые строки в description и dueTime сбрасывают значение.
func applyTaskInput(task *models.Task, in TaskInput) {
	if in.Title != nil {
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = nilIfEmpty(*in.Description)
	}
	if in.DueDate != nil {
		due := in.DueDate.UTC()
		task.DueDate = &due
	}
	if in.DueTime != nil {
		task.DueTime = nilIfEmpty(*in.DueTime)
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.Category != nil {
		task.Category = *in.Category
	}
	if in.CompletionStatus != nil {
		task.CompletionStatus = *in.CompletionStatus
	}
	if in.IsOverallTask != nil {
		task.IsOverallTask = *in.IsOverallTask
	}
	if in.EmailReminder != nil {
		task.EmailReminder = *in.EmailReminder
	}
	if in.PushReminder != nil {
		task.PushReminder = *in.PushReminder
	}
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func ownedTasks(tasks []models.Task, ownerID uuid.UUID) []models.Task {
	owned := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.OwnerID == ownerID {
			owned = append(owned, t)
		}
	}
	return owned
}
