package handlers

import (
	"log"
	"net/http"

	"github.com/maynagashev/taskkeeper/internal/models"
	"github.com/maynagashev/taskkeeper/internal/services"
)

// AuthHandler обрабатывает HTTP-запросы, связанные с аутентификацией.
type AuthHandler struct {
	store services.CredentialStore
}

// NewAuthHandler создает новый экземпляр AuthHandler.
func NewAuthHandler(store services.CredentialStore) *AuthHandler {
	return &AuthHandler{store: store}
}

// Register обрабатывает запрос на регистрацию нового пользователя.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, "AuthHandler", &req) {
		return
	}

	resp, err := h.store.Register(r.Context(), services.RegisterInput(req))
	if err != nil {
		writeServiceError(w, "AuthHandler", err)
		return
	}

	log.Printf("[AuthHandler] Зарегистрирован пользователь %s", resp.User.ID)
	writeJSON(w, http.StatusCreated, resp)
}

// Login обрабатывает запрос на вход пользователя.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, "AuthHandler", &req) {
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email и пароль не могут быть пустыми")
		return
	}

	resp, err := h.store.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "AuthHandler", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Me возвращает профиль текущего пользователя.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "AuthHandler:Me")
	if !ok {
		return
	}

	user, err := h.store.Me(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "AuthHandler:Me", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
