package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User представляет пользователя системы.
// Тэги `db` используются для маппинга с полями БД с помощью sqlx.
// Тэги `json` используются для (де)сериализации JSON.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // Не отправляем хеш пароля в JSON
	FirstName    string    `db:"first_name" json:"firstName"`
	LastName     string    `db:"last_name" json:"lastName"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// DisplayName возвращает имя пользователя для отображения.
func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// RegisterRequest представляет тело запроса на регистрацию.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginRequest представляет тело запроса на вход.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse представляет тело ответа при успешной регистрации или входе.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
