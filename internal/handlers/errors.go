package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/maynagashev/taskkeeper/internal/middleware"
	"github.com/maynagashev/taskkeeper/internal/services"
)

// maxBodyBytes ограничивает размер JSON-тела запроса.
const maxBodyBytes = 1 << 20

const internalErrorMessage = "Внутренняя ошибка сервера"

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// writeJSON пишет v в ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Handlers] Ошибка кодирования ответа: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// writeServiceError переводит ошибку сервиса в HTTP-ответ.
// Неизвестные ошибки логируются, клиент получает общее сообщение.
func writeServiceError(w http.ResponseWriter, component string, err error) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Message: "Ошибка валидации",
			Errors:  validationErr.Fields,
		})
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Printf("[%s] Внутренняя ошибка: %v", component, err)
		writeError(w, http.StatusInternalServerError, internalErrorMessage)
	}
}

// decodeJSON читает тело запроса в v. При ошибке сам пишет ответ 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, component string, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		log.Printf("[%s] Ошибка декодирования запроса: %v", component, err)
		writeError(w, http.StatusBadRequest, "Неверный формат запроса")
		return false
	}
	return true
}

// requireUser достает ID пользователя, положенный Authenticator.
func requireUser(w http.ResponseWriter, r *http.Request, component string) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		log.Printf("[%s] Не удалось получить userID из контекста", component)
		writeError(w, http.StatusUnauthorized, "Требуется аутентификация")
		return uuid.Nil, false
	}
	return userID, true
}

// pathID разбирает параметр {id}. Некорректный ID неотличим от отсутствующей записи.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, services.ErrNotFound.Error())
		return uuid.Nil, false
	}
	return id, true
}
