package models

import (
	"time"

	"github.com/google/uuid"
)

// Note представляет заметку пользователя.
// ExpiresAt равен nil тогда и только тогда, когда заметка закреплена.
type Note struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	OwnerID   uuid.UUID  `db:"owner_id" json:"ownerId"`
	Title     string     `db:"title" json:"title"`
	Content   string     `db:"content" json:"content"`
	Pinned    bool       `db:"pinned" json:"pinned"`
	ExpiresAt *time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// CreateNoteRequest представляет тело запроса на создание заметки.
type CreateNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Pinned  bool   `json:"pinned"`
}

// UpdateNoteRequest представляет тело PATCH-запроса. Отсутствующие поля не меняются.
type UpdateNoteRequest struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Pinned  *bool   `json:"pinned,omitempty"`
}
