package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/maynagashev/taskkeeper/internal/models"
	"github.com/maynagashev/taskkeeper/internal/services"
)

// TaskHandler обрабатывает HTTP-запросы к задачам.
type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(ts services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: ts}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "TaskHandler:List")
	if !ok {
		return
	}

	tasks, err := h.taskService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "TaskHandler:List", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Today возвращает общие задачи и задачи со сроком на сегодня.
func (h *TaskHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "TaskHandler:Today")
	if !ok {
		return
	}

	tasks, err := h.taskService.Today(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "TaskHandler:Today", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// Upcoming возвращает задачи на ближайшие ?days= дней.
func (h *TaskHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "TaskHandler:Upcoming")
	if !ok {
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Message: "Ошибка валидации",
				Errors:  map[string]string{"days": "должно быть целым числом"},
			})
			return
		}
		days = parsed
	}

	tasks, err := h.taskService.Upcoming(r.Context(), userID, days)
	if err != nil {
		writeServiceError(w, "TaskHandler:Upcoming", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "TaskHandler:ByDate")
	if !ok {
		return
	}

	tasks, err := h.taskService.ByDate(r.Context(), userID, chi.URLParam(r, "date"))
	if err != nil {
		writeServiceError(w, "TaskHandler:ByDate", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "TaskHandler:Stats")
	if !ok {
		return
	}

	stats, err := h.taskService.Stats(r.Context(), userID)
	if err != nil {
		writeServiceError(w, "TaskHandler:Stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "TaskHandler:Create")
	if !ok {
		return
	}

	var req models.TaskRequest
	if !decodeJSON(w, r, "TaskHandler:Create", &req) {
		return
	}

	task, err := h.taskService.Create(r.Context(), userID, services.TaskInput(req))
	if err != nil {
		writeServiceError(w, "TaskHandler:Create", err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "TaskHandler:Update")
	if !ok {
		return
	}
	taskID, ok := pathID(w, r)
	if !ok {
		return
	}

	var req models.TaskRequest
	if !decodeJSON(w, r, "TaskHandler:Update", &req) {
		return
	}

	task, err := h.taskService.Update(r.Context(), userID, taskID, services.TaskInput(req))
	if err != nil {
		writeServiceError(w, "TaskHandler:Update", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, "TaskHandler:Delete")
	if !ok {
		return
	}
	taskID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), userID, taskID); err != nil {
		writeServiceError(w, "TaskHandler:Delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
