package handlers

import (
	"net/http"

	"github.com/maynagashev/taskkeeper/internal/models"
	"github.com/maynagashev/taskkeeper/internal/services"
)

// VaultHandler обрабатывает HTTP-запросы, связанные с хранилищем паролей.
type VaultHandler struct {
	vaultService services.VaultService
}

// NewVaultHandler создает новый экземпляр VaultHandler.
func NewVaultHandler(vs services.VaultService) *VaultHandler {
	return &VaultHandler{vaultService: vs}
}

// List возвращает записи пользователя с замаскированными секретами.
func (h *VaultHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "VaultHandler:List")
	if !ok {
		return
	}

	entries, err := h.vaultService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "VaultHandler:List", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Create сохраняет новый секрет.
func (h *VaultHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "VaultHandler:Create")
	if !ok {
		return
	}

	var req models.CreateVaultEntryRequest
	if !decodeJSON(w, r, "VaultHandler:Create", &req) {
		return
	}

	entry, err := h.vaultService.Create(r.Context(), userID, services.CreateVaultEntryInput(req))
	if err != nil {
		writeServiceError(w, "VaultHandler:Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// Reveal возвращает открытый текст секрета после проверки пароля учетной записи.
func (h *VaultHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "VaultHandler:Reveal")
	if !ok {
		return
	}
	entryID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.RevealRequest
	if !decodeJSON(w, r, "VaultHandler:Reveal", &req) {
		return
	}

	plaintext, err := h.vaultService.Reveal(r.Context(), userID, entryID, req.AccountPassword)
	if err != nil {
		writeServiceError(w, "VaultHandler:Reveal", err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, models.RevealResponse{Plaintext: plaintext})
}

// Delete удаляет запись хранилища.
func (h *VaultHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "VaultHandler:Delete")
	if !ok {
		return
	}
	entryID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.vaultService.Delete(r.Context(), userID, entryID); err != nil {
		writeServiceError(w, "VaultHandler:Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
