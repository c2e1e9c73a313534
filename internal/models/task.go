package models

import (
	"time"

	"github.com/google/uuid"
)

// Приоритеты задач.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Категории задач.
const (
	CategoryAssignment = "assignment"
	CategoryExam       = "exam"
	CategoryProject    = "project"
	CategoryPersonal   = "personal"
)

// Статусы выполнения задач.
const (
	StatusPending  = "pending"
	StatusPartial  = "partial"
	StatusHalf     = "half"
	StatusComplete = "complete"
)

// Task представляет задачу пользователя.
type Task struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	OwnerID          uuid.UUID  `db:"owner_id" json:"ownerId"`
	Title            string     `db:"title" json:"title"`
	Description      *string    `db:"description" json:"description"`
	DueDate          *time.Time `db:"due_date" json:"dueDate"`
	DueTime          *string    `db:"due_time" json:"dueTime"`
	Priority         string     `db:"priority" json:"priority"`
	Category         string     `db:"category" json:"category"`
	CompletionStatus string     `db:"completion_status" json:"completionStatus"`
	IsOverallTask    bool       `db:"is_overall_task" json:"isOverallTask"`
	EmailReminder    bool       `db:"email_reminder" json:"emailReminder"`
	PushReminder     bool       `db:"push_reminder" json:"pushReminder"`
	CreatedAt        time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updatedAt"`
}

// TaskRequest используется и для создания (POST), и для частичного обновления (PATCH) задачи.
// Отсутствующие поля при создании получают значения по умолчанию, при обновлении не меняются.
type TaskRequest struct {
	Title            *string    `json:"title,omitempty"`
	Description      *string    `json:"description,omitempty"`
	DueDate          *time.Time `json:"dueDate,omitempty"`
	DueTime          *string    `json:"dueTime,omitempty"`
	Priority         *string    `json:"priority,omitempty"`
	Category         *string    `json:"category,omitempty"`
	CompletionStatus *string    `json:"completionStatus,omitempty"`
	IsOverallTask    *bool      `json:"isOverallTask,omitempty"`
	EmailReminder    *bool      `json:"emailReminder,omitempty"`
	PushReminder     *bool      `json:"pushReminder,omitempty"`
}

// TaskStats содержит сводку по задачам пользователя.
type TaskStats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	CompletionRate int `json:"completionRate"`
}
