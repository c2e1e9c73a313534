package handlers

import (
	"net/http"

	"github.com/maynagashev/taskkeeper/internal/models"
	"github.com/maynagashev/taskkeeper/internal/services"
)

// NoteHandler обрабатывает HTTP-запросы к заметкам.
type NoteHandler struct {
	noteService services.NoteService
}

func NewNoteHandler(ns services.NoteService) *NoteHandler {
	return &NoteHandler{noteService: ns}
}

// List возвращает только действующие заметки.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "NoteHandler:List")
	if !ok {
		return
	}

	notes, err := h.noteService.ListActive(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "NoteHandler:List", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "NoteHandler:Get")
	if !ok {
		return
	}
	noteID, ok := pathID(w, r)
	if !ok {
		return
	}

	note, err := h.noteService.Get(r.Context(), userID, noteID)
	if err != nil {
		writeServiceError(w, "NoteHandler:Get", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "NoteHandler:Create")
	if !ok {
		return
	}

	var req models.CreateNoteRequest
	if !decodeJSON(w, r, "NoteHandler:Create", &req) {
		return
	}

	note, err := h.noteService.Create(r.Context(), userID, services.CreateNoteInput(req))
	if err != nil {
		writeServiceError(w, "NoteHandler:Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// Update частично обновляет заметку. Поле pinned переключает закрепление.
func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "NoteHandler:Update")
	if !ok {
		return
	}
	noteID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.UpdateNoteRequest
	if !decodeJSON(w, r, "NoteHandler:Update", &req) {
		return
	}

	note, err := h.noteService.Update(r.Context(), userID, noteID, services.NoteUpdate(req))
	if err != nil {
		writeServiceError(w, "NoteHandler:Update", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "NoteHandler:Delete")
	if !ok {
		return
	}
	noteID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.noteService.Delete(r.Context(), userID, noteID); err != nil {
		writeServiceError(w, "NoteHandler:Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
