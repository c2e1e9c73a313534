package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/maynagashev/taskkeeper/internal/services"
)

// ExportHandler выгружает и отдает снимок данных пользователя.
// Без объектного хранилища все операции отвечают 503.
type ExportHandler struct {
	exportService services.ExportService
}

// NewExportHandler создает обработчик. es может быть nil, если MinIO не настроен.
func NewExportHandler(es services.ExportService) *ExportHandler {
	return &ExportHandler{exportService: es}
}

func (h *ExportHandler) available(w http.ResponseWriter) bool {
	if h.exportService == nil {
		writeError(w, http.StatusServiceUnavailable, "Экспорт недоступен: объектное хранилище не настроено")
		return false
	}
	return true
}

// Create сохраняет новый снимок в объектное хранилище.
func (h *ExportHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, ok := requireUser(w, r, "ExportHandler:Create")
	if !ok {
		return
	}

	export, err := h.exportService.Create(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "ExportHandler:Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, export)
}

// Download отдает последний снимок.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, ok := requireUser(w, r, "ExportHandler:Download")
	if !ok {
		return
	}

	reader, err := h.exportService.Download(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "ExportHandler:Download", err)
		return
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			log.Printf("[ExportHandler:Download] Ошибка закрытия reader: %v", closeErr)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="taskkeeper_export.json"`)
	w.WriteHeader(http.StatusOK)
	if _, err = io.Copy(w, reader); err != nil {
		log.Printf("[ExportHandler:Download] Ошибка копирования снимка для пользователя %s: %v", userID, err)
	}
}

// Delete удаляет сохраненный снимок.
func (h *ExportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.available(w) {
		return
	}
	userID, ok := requireUser(w, r, "ExportHandler:Delete")
	if !ok {
		return
	}

	if err := h.exportService.Delete(r.Context(), userID); err != nil {
		writeServiceError(w, "ExportHandler:Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
